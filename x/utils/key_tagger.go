package utils

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/store"
	"github.com/tendermint/tendermint/libs/common"
)

// KeyTagger is a decorator that records all Set/Delete
// operations performed by its children and adds all those keys
// as DeliverTx tags
type KeyTagger struct{}

var _ barter.Decorator = KeyTagger{}

// NewKeyTagger creates a KeyTagger decorator
func NewKeyTagger() KeyTagger {
	return KeyTagger{}
}

// Check does nothing
func (KeyTagger) Check(ctx context.Context, db barter.KVStore, tx barter.Tx, next barter.Checker) (*barter.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver passes in a recording KVStore into the child and
// uses that to calculate tags to add to DeliverResult
func (KeyTagger) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx, next barter.Deliverer) (*barter.DeliverResult, error) {
	record := store.NewRecordingStore(db)
	res, err := next.Deliver(ctx, record, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, kvPairs(record)...)
	return res, nil
}

var (
	recordSet    = []byte("s")
	recordDelete = []byte("d")
)

// kvPairs will get the kvpairs from an underlying store if possible
func kvPairs(db barter.KVStore) common.KVPairs {
	r, ok := db.(store.Recorder)
	if !ok {
		return nil
	}
	return changesToTags(r.KVPairs())
}

// changesToTags tags every changed key with "s" (set) or "d" (delete).
// Keys are hex encoded, tendermint only indexes printable tags.
func changesToTags(changes map[string][]byte) common.KVPairs {
	if len(changes) == 0 {
		return nil
	}
	res := make(common.KVPairs, 0, len(changes))
	for k, v := range changes {
		tag := recordSet
		if v == nil {
			tag = recordDelete
		}
		res = append(res, common.KVPair{
			Key:   []byte(strings.ToUpper(hex.EncodeToString([]byte(k)))),
			Value: tag,
		})
	}
	res.Sort()
	return res
}
