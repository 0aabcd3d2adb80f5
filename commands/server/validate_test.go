package server

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requireKey string

// FromGenesis fails unless the app state contains the key.
func (k requireKey) FromGenesis(opts barter.Options, db barter.KVStore) error {
	if _, ok := opts[string(k)]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "key %q", string(k))
	}
	return db.Set([]byte(k), []byte("ok"))
}

func TestValidateGenesis(t *testing.T) {
	dir, cleanup := setupHome(t, "")
	defer cleanup()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
		return path
	}
	good := write("good.json", `{"app_state": {"ledger": {}}}`)
	missing := write("missing.json", `{"app_state": {"other": {}}}`)
	broken := write("broken.json", `{"app_state": `)

	assert.NoError(t, ValidateGenesis(requireKey("ledger"), []string{good}))

	err := ValidateGenesis(requireKey("ledger"), []string{good, missing})
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	err = ValidateGenesis(requireKey("ledger"), []string{broken})
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	err = ValidateGenesis(requireKey("ledger"), nil)
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)
}
