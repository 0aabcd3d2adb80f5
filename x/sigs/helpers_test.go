package sigs

import (
	"context"

	"github.com/iov-one/barter"
)

// StdTx is a minimal SignedTx implementation.
type StdTx struct {
	Payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ barter.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	return &StdTx{Payload: payload}
}

func (tx StdTx) GetMsg() (barter.Msg, error) {
	return nil, nil
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	return tx.Payload, nil
}

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []barter.Address
}

var _ barter.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx context.Context, store barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	s.Signers = Authenticate{}.GetAddresses(ctx)
	return &barter.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx context.Context, store barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	s.Signers = Authenticate{}.GetAddresses(ctx)
	return &barter.DeliverResult{}, nil
}
