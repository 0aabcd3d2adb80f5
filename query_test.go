package barter

import (
	"bytes"
	"testing"

	"github.com/iov-one/barter/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoQuery returns the modifier as key and the data as value.
type echoQuery struct{}

func (echoQuery) Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error) {
	if mod != KeyQueryMod && mod != PrefixQueryMod {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "mod %q", mod)
	}
	return []Model{Pair([]byte(mod), data)}, nil
}

func TestQueryRouter(t *testing.T) {
	r := NewQueryRouter()
	r.RegisterAll(func(qr QueryRouter) {
		qr.Register("/", echoQuery{})
		qr.Register("/escrows", echoQuery{})
		qr.Register("/escrows/owner", echoQuery{})
	})

	cases := map[string]struct {
		path    string
		wantMod string
		wantErr *errors.Error
	}{
		"raw key":        {path: "/"},
		"raw prefix":     {path: "/?prefix", wantMod: PrefixQueryMod},
		"bucket":         {path: "/escrows"},
		"index prefix":   {path: "/escrows/owner?prefix", wantMod: PrefixQueryMod},
		"unknown mod":    {path: "/escrows?range", wantErr: errors.ErrInvalidInput},
		"unknown path":   {path: "/vaults", wantErr: errors.ErrNotFound},
		"trailing slash": {path: "/escrows/", wantErr: errors.ErrNotFound},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := r.Query(nil, tc.path, []byte("key"))
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, tc.wantMod, string(res[0].Key))
			assert.True(t, bytes.Equal([]byte("key"), res[0].Value))
		})
	}
}

func TestQueryRouterRegister(t *testing.T) {
	r := NewQueryRouter()
	r.Register("/accounts/authority", echoQuery{})
	assert.NotNil(t, r.Handler("/accounts/authority"))
	assert.Nil(t, r.Handler("/accounts"))

	assert.Panics(t, func() { r.Register("/accounts/authority", echoQuery{}) })
	for _, path := range []string{"", "accounts", "/accounts/", "/acc?prefix", "//"} {
		assert.Panics(t, func() { r.Register(path, echoQuery{}) }, path)
	}
}
