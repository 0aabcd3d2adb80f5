package sigs

import (
	"context"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx context.Context, signers []barter.Address) context.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate exposes the signers verified by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetAddresses returns who signed the current Context.
// May be empty
func (a Authenticate) GetAddresses(ctx context.Context) []barter.Address {
	val, _ := ctx.Value(contextKeySigners).([]barter.Address)
	return val
}

// HasAddress returns true if the address signed the current Context.
func (a Authenticate) HasAddress(ctx context.Context, addr barter.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}
