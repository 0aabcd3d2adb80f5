package bech32

import (
	"encoding/hex"
	"testing"

	"github.com/iov-one/barter/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	payload, err := hex.DecodeString("746573742d7061796c6f6164")
	require.NoError(t, err)

	cases := map[string]struct {
		enc         string
		wantHrp     string
		wantPayload []byte
		wantErr     *errors.Error
	}{
		"known vector": {
			enc:         "tiov1w3jhxapdwpshjmr0v9jqymqq4y",
			wantHrp:     "tiov",
			wantPayload: payload,
		},
		"broken checksum": {
			enc:     "tiov1w3jhxapdwpshjmr0v9jqymqq4z",
			wantErr: errors.ErrInvalidInput,
		},
		"no separator": {
			enc:     "w3jhxapdwpshjmr0v9jqymqq4y",
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			hrp, got, err := Decode(tc.enc)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, tc.wantHrp, hrp)
			assert.Equal(t, tc.wantPayload, got)

			enc, err := Encode(hrp, got)
			require.NoError(t, err)
			assert.Equal(t, tc.enc, enc)
		})
	}
}
