package bartertest

import (
	"context"

	"github.com/iov-one/barter"
)

// Handler is a barter.Handler that counts its calls and returns the
// configured results.
type Handler struct {
	checkCall   int
	CheckResult barter.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult barter.DeliverResult
	DeliverErr    error

	// Write if set is stored under its key on every call, before the
	// result is returned. It allows testing rollback of failed calls.
	Write *barter.Model
	// Panic if set is raised instead of returning.
	Panic interface{}
}

var _ barter.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	h.checkCall++
	if err := h.act(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	h.deliverCall++
	if err := h.act(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) act(db barter.KVStore) error {
	if h.Write != nil {
		if err := db.Set(h.Write.Key, h.Write.Value); err != nil {
			return err
		}
	}
	if h.Panic != nil {
		panic(h.Panic)
	}
	return nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
