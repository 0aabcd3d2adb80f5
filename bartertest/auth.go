package bartertest

import (
	"context"
	"fmt"

	"github.com/iov-one/barter"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced addresses. Signer and
// Signers can be used together, all of them are considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer barter.Address

	// Signers represents an authentication of multiple signers.
	Signers []barter.Address
}

func (a *Auth) GetAddresses(context.Context) []barter.Address {
	if a.Signer != nil {
		return append([]barter.Address{a.Signer}, a.Signers...)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx context.Context, addr barter.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve addresses.
type CtxAuth struct {
	// Key used to set and retrieve addresses from the context.
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetAddresses(ctx context.Context, addrs ...barter.Address) context.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), addrs)
}

func (a *CtxAuth) GetAddresses(ctx context.Context) []barter.Address {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	addrs, ok := val.([]barter.Address)
	if !ok {
		panic(fmt.Sprintf("instead of []barter.Address got %T", val))
	}
	return addrs
}

func (a *CtxAuth) HasAddress(ctx context.Context, addr barter.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}
