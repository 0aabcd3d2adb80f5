package app

import (
	"context"
	"testing"

	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/errors"
	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	good := &bartertest.Msg{RoutePath: "good"}
	bad := &bartertest.Msg{RoutePath: "bad"}
	missing := &bartertest.Msg{RoutePath: "missing"}

	counter := &bartertest.Handler{}
	r.Handle(good, counter)
	r.Handle(bad, &bartertest.Handler{DeliverErr: errors.ErrInsufficientFunds})

	assert.Panics(t, func() { r.Handle(good, counter) })
	assert.Panics(t, func() { r.Handle(&bartertest.Msg{RoutePath: "l:7"}, counter) })

	ctx := context.Background()

	_, err := r.Check(ctx, nil, &bartertest.Tx{Msg: good})
	assert.NoError(t, err)
	_, err = r.Deliver(ctx, nil, &bartertest.Tx{Msg: good})
	assert.NoError(t, err)
	assert.Equal(t, 2, counter.CallCount())

	_, err = r.Deliver(ctx, nil, &bartertest.Tx{Msg: bad})
	assert.True(t, errors.ErrInsufficientFunds.Is(err))

	_, err = r.Deliver(ctx, nil, &bartertest.Tx{Msg: missing})
	assert.True(t, errors.ErrNotFound.Is(err))
	_, err = r.Check(ctx, nil, &bartertest.Tx{Msg: missing})
	assert.True(t, errors.ErrNotFound.Is(err))

	_, err = r.Check(ctx, nil, &bartertest.Tx{})
	assert.True(t, errors.ErrInvalidMsg.Is(err))
	_, err = r.Deliver(ctx, nil, &bartertest.Tx{Err: errors.ErrInvalidType})
	assert.True(t, errors.ErrInvalidType.Is(err))

	assert.Equal(t, 2, counter.CallCount())
}
