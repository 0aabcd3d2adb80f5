package orm

import (
	"bytes"
	"sort"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	amino "github.com/tendermint/go-amino"
)

const indexPrefix = "_i."

var cdc = amino.NewCodec()

// Indexer calculates the secondary index key for a given object.
// A nil key leaves the object out of the index.
type Indexer func(Object) ([]byte, error)

// Index keeps the secondary keys of all objects in a bucket.
type Index interface {
	barter.QueryHandler

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// save == nil means delete
	Update(db barter.KVStore, prev Object, save Object) error

	// GetAt returns the primary keys of all objects indexed under the
	// given value.
	GetAt(db barter.ReadOnlyKVStore, index []byte) ([][]byte, error)
}

// multiRef is the value stored for a non unique index key.
type multiRef struct {
	Refs [][]byte
}

// index represents a secondary index on some data.
// It is indexed by an arbitrary key returned by Indexer.
// The value is one primary key (unique),
// Or an array of primary keys (!unique).
type index struct {
	name   string
	id     []byte
	unique bool
	index  Indexer
	refKey func([]byte) []byte
}

var _ Index = index{}

// NewIndex constructs an index
// Indexer calculates the index for an object
// unique enforces a unique constraint on the index
// refKey calculates the absolute dbkey for a ref
func NewIndex(name string, indexer Indexer, unique bool, refKey func([]byte) []byte) Index {
	return index{
		name:   name,
		id:     append([]byte(indexPrefix), []byte(name+":")...),
		index:  indexer,
		unique: unique,
		refKey: refKey,
	}
}

func (i index) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the object in
// the secondary index.
func (i index) Update(db barter.KVStore, prev Object, save Object) error {
	switch {
	case prev == nil && save == nil:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case prev == nil:
		key, err := i.index(save)
		if err != nil || key == nil {
			return err
		}
		return i.insert(db, key, save.Key())
	case save == nil:
		key, err := i.index(prev)
		if err != nil || key == nil {
			return err
		}
		return i.remove(db, key, prev.Key())
	}

	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrHuman, "cannot change primary key")
	}
	oldKey, err := i.index(prev)
	if err != nil {
		return err
	}
	newKey, err := i.index(save)
	if err != nil {
		return err
	}
	if bytes.Equal(oldKey, newKey) {
		return nil
	}
	if oldKey != nil {
		if err := i.remove(db, oldKey, prev.Key()); err != nil {
			return err
		}
	}
	if newKey == nil {
		return nil
	}
	return i.insert(db, newKey, save.Key())
}

// GetAt returns the primary keys stored under the index value.
func (i index) GetAt(db barter.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	val, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{val}, nil
	}
	var refs multiRef
	if err := cdc.UnmarshalBinaryBare(val, &refs); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	return refs.Refs, nil
}

// Query loads all objects referenced under the index value, or under
// every index value starting with the data in prefix mode.
func (i index) Query(db barter.ReadOnlyKVStore, mod string, data []byte) ([]barter.Model, error) {
	var refs [][]byte
	switch mod {
	case barter.KeyQueryMod:
		r, err := i.GetAt(db, data)
		if err != nil {
			return nil, err
		}
		refs = r
	case barter.PrefixQueryMod:
		itr, err := db.Iterator(prefixRange(i.indexKey(data)))
		if err != nil {
			return nil, err
		}
		for _, m := range ConsumeIterator(itr) {
			if i.unique {
				refs = append(refs, m.Value)
				continue
			}
			var mr multiRef
			if err := cdc.UnmarshalBinaryBare(m.Value, &mr); err != nil {
				return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
			}
			refs = append(refs, mr.Refs...)
		}
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown mod: %s", mod)
	}

	res := make([]barter.Model, 0, len(refs))
	for _, ref := range refs {
		key := i.refKey(ref)
		val, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, errors.Wrapf(errors.ErrHuman, "index %s points to missing %X", i.name, ref)
		}
		res = append(res, barter.Pair(key, val))
	}
	return res, nil
}

func (i index) insert(db barter.KVStore, key []byte, pk []byte) error {
	dbKey := i.indexKey(key)
	cur, err := db.Get(dbKey)
	if err != nil {
		return err
	}

	if i.unique {
		if cur != nil {
			return errors.Wrapf(errors.ErrDuplicate, "index %s", i.name)
		}
		return db.Set(dbKey, pk)
	}

	var refs multiRef
	if cur != nil {
		if err := cdc.UnmarshalBinaryBare(cur, &refs); err != nil {
			return errors.Wrap(errors.ErrInvalidModel, err.Error())
		}
	}
	n := sort.Search(len(refs.Refs), func(j int) bool {
		return bytes.Compare(refs.Refs[j], pk) >= 0
	})
	if n < len(refs.Refs) && bytes.Equal(refs.Refs[n], pk) {
		return nil
	}
	refs.Refs = append(refs.Refs, nil)
	copy(refs.Refs[n+1:], refs.Refs[n:])
	refs.Refs[n] = pk
	return i.setRefs(db, dbKey, refs)
}

func (i index) remove(db barter.KVStore, key []byte, pk []byte) error {
	dbKey := i.indexKey(key)
	cur, err := db.Get(dbKey)
	if err != nil {
		return err
	}
	if cur == nil {
		return errors.Wrapf(errors.ErrNotFound, "index %s has no key %X", i.name, key)
	}

	if i.unique {
		if !bytes.Equal(cur, pk) {
			return errors.Wrapf(errors.ErrInvalidState, "index %s points to %X", i.name, cur)
		}
		return db.Delete(dbKey)
	}

	var refs multiRef
	if err := cdc.UnmarshalBinaryBare(cur, &refs); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	for j, ref := range refs.Refs {
		if bytes.Equal(ref, pk) {
			refs.Refs = append(refs.Refs[:j], refs.Refs[j+1:]...)
			if len(refs.Refs) == 0 {
				return db.Delete(dbKey)
			}
			return i.setRefs(db, dbKey, refs)
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "index %s has no ref %X", i.name, pk)
}

func (i index) setRefs(db barter.KVStore, dbKey []byte, refs multiRef) error {
	bz, err := cdc.MarshalBinaryBare(refs)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	return db.Set(dbKey, bz)
}
