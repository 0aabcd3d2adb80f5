package orm

import (
	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
)

// RegisterQuery will register a root query (literal keys)
// under "/"
func RegisterQuery(qr barter.QueryRouter) {
	qr.Register("/", rawQuery{})
}

type rawQuery struct{}

func (rawQuery) Query(db barter.ReadOnlyKVStore, mod string, data []byte) ([]barter.Model, error) {
	switch mod {
	case barter.KeyQueryMod:
		value, err := db.Get(data)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		return []barter.Model{barter.Pair(data, value)}, nil
	case barter.PrefixQueryMod:
		return queryPrefix(db, data)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown mod: %s", mod)
	}
}

// ConsumeIterator will read all remaining data into an
// array and close the iterator
func ConsumeIterator(itr barter.Iterator) []barter.Model {
	defer itr.Close()

	var res []barter.Model
	for ; itr.Valid(); itr.Next() {
		res = append(res, barter.Pair(itr.Key(), itr.Value()))
	}
	return res
}

func queryPrefix(db barter.ReadOnlyKVStore, prefix []byte) ([]barter.Model, error) {
	itr, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, err
	}
	return ConsumeIterator(itr), nil
}

// prefixRange turns a prefix into (start, end) to create
// and iterator
func prefixRange(prefix []byte) ([]byte, []byte) {
	// special case: no prefix is whole range
	if len(prefix) == 0 {
		return nil, nil
	}

	// copy the prefix and update last byte
	end := make([]byte, len(prefix))
	copy(end, prefix)
	l := len(end) - 1
	end[l]++

	// wait, what if that overflowed?....
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// okay, funny guy, you gave us FFF, no end to this range...
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return prefix, end
}
