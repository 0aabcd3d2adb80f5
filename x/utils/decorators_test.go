package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

func TestSavepoint(t *testing.T) {
	ok, ov := []byte("demo"), []byte("data")
	nk, nv := []byte{1, 2, 3}, []byte{4, 5, 6}

	cases := map[string]struct {
		save    Savepoint
		failing bool
		check   bool
		written [][]byte
		missing [][]byte
	}{
		"inactive savepoint keeps partial writes": {
			save:    NewSavepoint(),
			failing: true,
			check:   true,
			written: [][]byte{ok, nk},
		},
		"check savepoint rolls back on error": {
			save:    NewSavepoint().OnCheck(),
			failing: true,
			check:   true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"deliver savepoint rolls back on error": {
			save:    NewSavepoint().OnDeliver(),
			failing: true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"check savepoint ignores deliver": {
			save:    NewSavepoint().OnCheck(),
			failing: true,
			written: [][]byte{ok, nk},
		},
		"both active writes on success": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			written: [][]byte{ok, nk},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			require.NoError(t, kv.Set(ok, ov))

			h := &bartertest.Handler{Write: &barter.Model{Key: nk, Value: nv}}
			if tc.failing {
				h.CheckErr = errors.ErrInsufficientFunds
				h.DeliverErr = errors.ErrInsufficientFunds
			}

			var err error
			if tc.check {
				_, err = tc.save.Check(context.Background(), kv, &bartertest.Tx{}, h)
			} else {
				_, err = tc.save.Deliver(context.Background(), kv, &bartertest.Tx{}, h)
			}
			assert.Equal(t, tc.failing, err != nil)

			for _, k := range tc.written {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.True(t, has, "%X", k)
			}
			for _, k := range tc.missing {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.False(t, has, "%X", k)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := &bartertest.Handler{Panic: "boom"}
	r := NewRecovery()
	var buf bytes.Buffer
	ctx := barter.WithLogger(context.Background(), log.NewTMLogger(&buf))
	tx := &bartertest.Tx{Msg: &bartertest.Msg{RoutePath: "escrow/fulfill"}}

	_, err := r.Check(ctx, store.MemStore(), tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = r.Deliver(ctx, store.MemStore(), tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Equal(t, 2, h.CallCount())
	assert.Contains(t, buf.String(), "escrow/fulfill")
	assert.Contains(t, buf.String(), "boom")

	// Without a panic the result passes through.
	ok := &bartertest.Handler{DeliverErr: errors.ErrNotFound}
	_, err = r.Deliver(ctx, store.MemStore(), tx, ok)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := barter.WithLogger(context.Background(), log.NewTMLogger(&buf))
	tx := &bartertest.Tx{Msg: &bartertest.Msg{RoutePath: "escrow/open"}}

	_, err := NewLogging().Deliver(ctx, store.MemStore(), tx, &bartertest.Handler{
		DeliverErr: errors.ErrNotFound,
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "escrow/open")
	assert.Contains(t, buf.String(), "not found")
}

func TestTaggers(t *testing.T) {
	key, val := []byte("escrow:1"), []byte("x")
	h := &bartertest.Handler{Write: &barter.Model{Key: key, Value: val}}
	tx := &bartertest.Tx{Msg: &bartertest.Msg{RoutePath: "escrow/open"}}
	stack := []barter.Decorator{NewActionTagger(), NewKeyTagger()}

	var next barter.Deliverer = h
	for i := len(stack) - 1; i >= 0; i-- {
		next = decorated{d: stack[i], next: next}
	}
	res, err := next.Deliver(context.Background(), store.MemStore(), tx)
	require.NoError(t, err)

	want := []common.KVPair{
		{Key: []byte("657363726F773A31"), Value: []byte("s")},
		{Key: []byte(ActionKey), Value: []byte("escrow/open")},
	}
	assert.Equal(t, want, res.Tags)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	tx := &bartertest.Tx{Msg: &bartertest.Msg{RoutePath: "escrow/fulfill"}}

	_, err := m.Deliver(context.Background(), store.MemStore(), tx, &bartertest.Handler{})
	require.NoError(t, err)
	_, err = m.Deliver(context.Background(), store.MemStore(), tx, &bartertest.Handler{
		DeliverErr: errors.ErrInsufficientFunds,
	})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "barter_tx_processed_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "code" {
					counts[l.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"ok": 1, "10": 1}, counts)
}

type decorated struct {
	d    barter.Decorator
	next barter.Deliverer
}

func (d decorated) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	return d.d.Deliver(ctx, db, tx, d.next)
}
