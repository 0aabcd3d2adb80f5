package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreConstructor returns a fresh empty store and a function releasing
// its resources.
type StoreConstructor func() (base CacheableKVStore, cleanup func())

// RunSuite runs the checks every CacheableKVStore implementation must
// pass. Each check gets its own store from newStore.
func RunSuite(t *testing.T, newStore StoreConstructor) {
	checks := map[string]func(*testing.T, CacheableKVStore){
		"cache layers":          checkCacheLayers,
		"child overrides":       checkChildOverrides,
		"iterate child":         iterScenario{child: 40, childDel: 10}.check,
		"iterate parent":        iterScenario{parent: 40, parentDel: 10}.check,
		"iterate both":          iterScenario{parent: 30, parentDel: 8, child: 30, childDel: 8}.check,
		"iterate overwrites":    iterScenario{parent: 20, child: 20, overwrite: 10}.check,
		"iterate deleted range": iterScenario{parent: 12, deleteParent: true}.check,
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			base, cleanup := newStore()
			defer cleanup()
			check(t, base)
		})
	}
}

func checkCacheLayers(t *testing.T, base CacheableKVStore) {
	k1, k2, k3 := []byte("offer"), []byte("vault"), []byte("ledger")
	v1, v2, v3 := []byte("open"), []byte("locked"), []byte("balance")

	assertValue(t, base, k1, nil)
	require.NoError(t, base.Set(k1, v1))
	assertValue(t, base, k1, v1)

	cache := base.CacheWrap()
	assertValue(t, cache, k1, v1)
	require.NoError(t, cache.Set(k2, v2))
	assertValue(t, cache, k2, v2)
	assertValue(t, base, k2, nil)
	require.NoError(t, cache.Write())
	assertValue(t, base, k2, v2)

	discarded := base.CacheWrap()
	require.NoError(t, discarded.Set(k3, v3))
	require.NoError(t, discarded.Delete(k1))
	discarded.Discard()
	assertValue(t, base, k1, v1)
	assertValue(t, base, k3, nil)

	deleting := base.CacheWrap()
	require.NoError(t, deleting.Delete(k1))
	assertValue(t, deleting, k1, nil)
	assertValue(t, base, k1, v1)
	require.NoError(t, deleting.Write())
	assertValue(t, base, k1, nil)
	assertValue(t, base, k2, v2)
}

func checkChildOverrides(t *testing.T, parent CacheableKVStore) {
	ms := testModels("override", 4)
	require.NoError(t, parent.Set(ms[0].Key, ms[0].Value))
	require.NoError(t, parent.Set(ms[1].Key, ms[1].Value))

	child := parent.CacheWrap()
	require.NoError(t, child.Set(ms[0].Key, ms[2].Value))
	require.NoError(t, child.Delete(ms[1].Key))
	require.NoError(t, child.Set(ms[3].Key, ms[3].Value))

	assertValue(t, parent, ms[0].Key, ms[0].Value)
	assertValue(t, parent, ms[1].Key, ms[1].Value)
	assertValue(t, parent, ms[3].Key, nil)

	assertValue(t, child, ms[0].Key, ms[2].Value)
	assertValue(t, child, ms[1].Key, nil)
	assertValue(t, child, ms[3].Key, ms[3].Value)

	require.NoError(t, child.Write())
	assertValue(t, parent, ms[0].Key, ms[2].Value)
	assertValue(t, parent, ms[1].Key, nil)
	assertValue(t, parent, ms[3].Key, ms[3].Value)
}

// iterScenario fills a parent store and a cache on top of it, then
// compares every iteration over the cache with a plain map holding the
// expected state.
type iterScenario struct {
	parent, parentDel int
	child, childDel   int
	// overwrite is the number of parent keys the child sets again.
	overwrite int
	// deleteParent makes the child delete every parent key.
	deleteParent bool
}

func (s iterScenario) check(t *testing.T, base CacheableKVStore) {
	want := make(map[string][]byte)
	apply := func(db SetDeleter, ops []Op) {
		for _, op := range ops {
			require.NoError(t, op.Apply(db))
			if op.IsSetOp() {
				want[string(op.Key())] = op.Value()
			} else {
				delete(want, string(op.Key()))
			}
		}
	}

	parent := testModels("parent", s.parent)
	apply(base, setOps(parent))
	apply(base, delOps(parent[:s.parentDel]))

	child := base.CacheWrap()
	added := testModels("child", s.child)
	apply(child, setOps(added))
	apply(child, delOps(added[:s.childDel]))
	for i, m := range parent[:s.overwrite] {
		apply(child, []Op{SetOp(m.Key, []byte{byte(i), 'x'})})
	}
	if s.deleteParent {
		apply(child, delOps(parent))
	}

	expected := sortedModels(want)
	n := len(expected)
	ranges := [][2][]byte{{nil, nil}}
	if n > 4 {
		ranges = append(ranges,
			[2][]byte{expected[n/4].Key, nil},
			[2][]byte{nil, expected[n-n/4].Key},
			[2][]byte{expected[n/4].Key, expected[n/2].Key},
		)
	}
	for _, r := range ranges {
		fwd := inRange(expected, r[0], r[1])
		itr, err := child.Iterator(r[0], r[1])
		require.NoError(t, err)
		assertIterates(t, itr, fwd)

		itr, err = child.ReverseIterator(r[0], r[1])
		require.NoError(t, err)
		assertIterates(t, itr, reversed(fwd))
	}
}

func assertValue(t testing.TB, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}

func assertIterates(t testing.TB, itr Iterator, want []Model) {
	t.Helper()
	defer itr.Close()
	for i, m := range want {
		require.True(t, itr.Valid(), "iterator ended after %d of %d items", i, len(want))
		require.Equal(t, m.Key, itr.Key(), "key %d", i)
		assert.Equal(t, m.Value, itr.Value(), "value %d", i)
		itr.Next()
	}
	assert.False(t, itr.Valid(), "iterator returned more than %d items", len(want))
}

// testModels returns n deterministic models of varying key length.
func testModels(seed string, n int) []Model {
	res := make([]Model, n)
	for i := range res {
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(i))
		h := sha256.Sum256(append([]byte(seed), idx[:]...))
		res[i] = Pair(h[:8+i%16], h[16:])
	}
	return res
}

func sortedModels(m map[string][]byte) []Model {
	res := make([]Model, 0, len(m))
	for k, v := range m {
		res = append(res, Pair([]byte(k), v))
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

// inRange filters sorted models to start <= key < end, nil meaning no
// bound.
func inRange(ms []Model, start, end []byte) []Model {
	var res []Model
	for _, m := range ms {
		if start != nil && bytes.Compare(m.Key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(m.Key, end) >= 0 {
			continue
		}
		res = append(res, m)
	}
	return res
}

func reversed(ms []Model) []Model {
	res := make([]Model, len(ms))
	for i, m := range ms {
		res[len(ms)-1-i] = m
	}
	return res
}

func setOps(ms []Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func delOps(ms []Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
