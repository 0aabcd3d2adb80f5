package utils

import (
	"context"
	"fmt"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
)

// Recovery returns a panic raised below it in the stack as ErrPanic and
// logs it with the message path.
type Recovery struct{}

var _ barter.Decorator = Recovery{}

// NewRecovery returns a Recovery decorator.
func NewRecovery() Recovery {
	return Recovery{}
}

// Check implements barter.Decorator
func (Recovery) Check(ctx context.Context, store barter.KVStore, tx barter.Tx, next barter.Checker) (_ *barter.CheckResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

// Deliver implements barter.Decorator
func (Recovery) Deliver(ctx context.Context, store barter.KVStore, tx barter.Tx, next barter.Deliverer) (_ *barter.DeliverResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recoverTx must be deferred directly for recover to see the panic.
func recoverTx(ctx context.Context, tx barter.Tx, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = errors.Wrapf(errors.ErrPanic, "%v", r)
	barter.GetLogger(ctx).Error("panic in handler", "path", barter.GetPath(tx), "panic", fmt.Sprint(r))
}
