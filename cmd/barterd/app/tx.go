package app

import (
	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/escrow"
	"github.com/iov-one/barter/x/ledger"
	"github.com/iov-one/barter/x/sigs"
	amino "github.com/tendermint/go-amino"
)

var cdc = MakeCodec()

// MakeCodec returns a codec that can serialize a Tx carrying any message
// of the ledger and escrow extensions.
func MakeCodec() *amino.Codec {
	cdc := amino.NewCodec()
	cdc.RegisterInterface((*barter.Msg)(nil), nil)
	ledger.RegisterCodec(cdc)
	escrow.RegisterCodec(cdc)
	cdc.Seal()
	return cdc
}

// Tx is the transaction format of the chain: a single message and the
// signatures authorizing it.
type Tx struct {
	Sum        barter.Msg           `json:"sum"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

// make sure tx fulfills all interfaces
var _ barter.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (barter.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg returns the single message of the transaction.
func (tx *Tx) GetMsg() (barter.Msg, error) {
	if tx.Sum == nil {
		return nil, errors.Wrap(errors.ErrInvalidMsg, "empty transaction")
	}
	return tx.Sum, nil
}

// GetSignatures returns all signatures attached to the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign...
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// the sign bytes only come from the message, not previous signatures
	unsigned := Tx{Sum: tx.Sum}
	return unsigned.Marshal()
}

// Marshal serializes the transaction with amino.
func (tx *Tx) Marshal() ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return bz, nil
}

// Unmarshal parses an amino encoded transaction.
func (tx *Tx) Unmarshal(bz []byte) error {
	if err := cdc.UnmarshalBinaryBare(bz, tx); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "cannot decode tx: %s", err)
	}
	return nil
}

// MarshalJSON prints the transaction with the type of its message, so that
// the result can be read back with UnmarshalJSON.
func (tx *Tx) MarshalJSON() ([]byte, error) {
	type plain Tx
	return cdc.MarshalJSON((*plain)(tx))
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (tx *Tx) UnmarshalJSON(raw []byte) error {
	type plain Tx
	if err := cdc.UnmarshalJSON(raw, (*plain)(tx)); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return nil
}
