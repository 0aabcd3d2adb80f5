package app

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/escrow"
	"github.com/iov-one/barter/x/ledger"
	"github.com/iov-one/barter/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxEncoding(t *testing.T) {
	key := bartertest.SeededKey("signer")
	msgs := map[string]barter.Msg{
		"transfer": &ledger.TransferMsg{
			Source:      bartertest.NewAddress(),
			Destination: bartertest.NewAddress(),
			Amount:      42,
		},
		"cancel without destination": &escrow.CancelMsg{
			Escrow: bartertest.NewAddress(),
			Vault:  bartertest.NewAddress(),
			Maker:  bartertest.NewAddress(),
		},
	}
	for testName, msg := range msgs {
		t.Run(testName, func(t *testing.T) {
			tx := &Tx{Sum: msg}
			unsigned, err := tx.GetSignBytes()
			require.NoError(t, err)

			sig, err := sigs.SignTx(key, tx, "barter-test-net", 3)
			require.NoError(t, err)
			tx.Signatures = []*sigs.StdSignature{sig}

			// signatures are not part of the signed bytes
			signBytes, err := tx.GetSignBytes()
			require.NoError(t, err)
			assert.Equal(t, unsigned, signBytes)

			raw, err := tx.Marshal()
			require.NoError(t, err)
			decoded, err := TxDecoder(raw)
			require.NoError(t, err)

			got, err := decoded.GetMsg()
			require.NoError(t, err)
			assert.Equal(t, msg, got)
			assert.Equal(t, barter.GetPath(tx), barter.GetPath(decoded))
			require.Len(t, decoded.(*Tx).GetSignatures(), 1)
			assert.EqualValues(t, 3, decoded.(*Tx).GetSignatures()[0].Sequence)

			js, err := json.Marshal(tx)
			require.NoError(t, err)
			var fromJSON Tx
			require.NoError(t, json.Unmarshal(js, &fromJSON))
			assert.Equal(t, msg, fromJSON.Sum)
		})
	}
}

func TestTxDecodingErrors(t *testing.T) {
	_, err := TxDecoder([]byte{0xff, 0x01})
	assert.True(t, errors.ErrInvalidInput.Is(err))

	_, err = (&Tx{}).GetMsg()
	assert.True(t, errors.ErrInvalidMsg.Is(err))
}
