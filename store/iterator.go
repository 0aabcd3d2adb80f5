package store

import (
	"bytes"

	"github.com/google/btree"
)

// collect snapshots all btree items in [start, end). Snapshotting
// keeps the iterator valid while the cache is modified by the caller.
func collect(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	insert := func(item btree.Item) bool {
		items = append(items, item)
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(insert)
	case start == nil:
		bt.AscendLessThan(bkey{end}, insert)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, insert)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, insert)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// mergeIterator joins the cached items with those of the parent,
// taking into consideration overwrites and deletes.
type mergeIterator struct {
	items   []btree.Item
	idx     int
	parent  Iterator
	reverse bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []btree.Item, parent Iterator, reverse bool) *mergeIterator {
	it := &mergeIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
	it.skipAllDeleted()
	return it
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergeIterator) Valid() bool {
	return i.ourValid() || i.parentValid()
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
//
// If Valid returns false, this method will panic.
func (i *mergeIterator) Next() {
	switch i.firstKey() {
	case us:
		i.idx++
	case both:
		i.idx++
		i.parent.Next()
	case parent:
		i.parent.Next()
	default:
		panic("advanced past the end")
	}
	i.skipAllDeleted()
}

// Key returns the key of the cursor.
func (i *mergeIterator) Key() []byte {
	switch i.firstKey() {
	case us, both:
		return i.our().Key()
	case parent:
		return i.parent.Key()
	default:
		panic("advanced past the end")
	}
}

// Value returns the value of the cursor.
func (i *mergeIterator) Value() []byte {
	switch i.firstKey() {
	case us, both:
		return i.our().(setItem).value
	case parent:
		return i.parent.Value()
	default:
		panic("advanced past the end")
	}
}

// Close releases the Iterator.
func (i *mergeIterator) Close() {
	i.parent.Close()
	i.items = nil
}

func (i *mergeIterator) our() keyer {
	return i.items[i.idx].(keyer)
}

func (i *mergeIterator) ourValid() bool {
	return i.idx < len(i.items)
}

func (i *mergeIterator) parentValid() bool {
	return i.parent != nil && i.parent.Valid()
}

// skipAllDeleted advances over every deleted item at the cursor,
// together with the parent entry it shadows.
func (i *mergeIterator) skipAllDeleted() {
	for {
		src := i.firstKey()
		if src != us && src != both {
			return
		}
		if _, ok := i.items[i.idx].(deletedItem); !ok {
			return
		}
		i.idx++
		if src == both {
			i.parent.Next()
		}
	}
}

// firstKey selects the iterator with the next key to emit
func (i *mergeIterator) firstKey() source {
	if !i.parentValid() {
		if !i.ourValid() {
			return none
		}
		return us
	} else if !i.ourValid() {
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.our().Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
