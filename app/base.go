package app

import (
	"context"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp runs CheckTx and DeliverTx through a handler stack, on top of
// the stores and queries of StoreApp.
type BaseApp struct {
	*StoreApp
	decoder barter.TxDecoder
	handler barter.Handler
	// debug puts internal error details into the responses.
	debug bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp returns an application decoding transactions with decoder
// and processing them with handler.
func NewBaseApp(store *StoreApp, decoder barter.TxDecoder, handler barter.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx implements abci.Application
func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	tx, ctx, err := b.prepare(raw, "deliver_tx")
	if err != nil {
		return barter.DeliverTxError(err, b.debug)
	}
	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	return barter.DeliverOrError(res, err, b.debug)
}

// CheckTx implements abci.Application
func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	tx, ctx, err := b.prepare(raw, "check_tx")
	if err != nil {
		return barter.CheckTxError(err, b.debug)
	}
	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return barter.CheckOrError(res, err, b.debug)
}

// prepare decodes raw and returns the context of the current block with
// the call and message path attached to its logger. A panic of the
// decoder is returned as ErrPanic.
func (b BaseApp) prepare(raw []byte, call string) (tx barter.Tx, ctx context.Context, err error) {
	defer errors.Recover(&err)
	if tx, err = b.decoder(raw); err != nil {
		return nil, nil, errors.Wrap(err, "decode tx")
	}
	ctx = barter.WithLogInfo(b.BlockContext(), "call", call, "path", barter.GetPath(tx))
	return tx, ctx, nil
}
