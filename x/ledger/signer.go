package ledger

import (
	"context"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x"
)

// Signer resolves the address on whose behalf a ledger operation is
// executed. Every debit compares the resolved address with the account
// authority.
type Signer interface {
	Resolve(ctx context.Context) (barter.Address, error)
}

// TxSigner returns a signer for an address that must have signed the
// transaction.
func TxSigner(auth x.Authenticator, addr barter.Address) Signer {
	return txSigner{auth: auth, addr: addr}
}

type txSigner struct {
	auth x.Authenticator
	addr barter.Address
}

func (s txSigner) Resolve(ctx context.Context) (barter.Address, error) {
	if err := s.addr.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, err.Error())
	}
	if !s.auth.HasAddress(ctx, s.addr) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "missing signature of %s", s.addr)
	}
	return s.addr, nil
}

// DerivedSigner returns a signer acting for a key-less address. The address
// is recomputed from the derivation on every use, it is never taken from
// the caller.
func DerivedSigner(d barter.Derivation) Signer {
	return derivedSigner{d: d}
}

type derivedSigner struct {
	d barter.Derivation
}

func (s derivedSigner) Resolve(context.Context) (barter.Address, error) {
	addr, err := s.d.Address()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDerivationMismatch, err.Error())
	}
	return addr, nil
}
