package iavl

import (
	"crypto/rand"
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/barter/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBase() (store.CacheableKVStore, func()) {
	return MockCommitStore().Adapter(), func() {}
}

func makeCommitStore(t testing.TB) (CommitStore, string, func()) {
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	require.NoError(t, err)
	return NewCommitStore(tmpDir, "base"), tmpDir, func() { os.RemoveAll(tmpDir) }
}

func TestAdapter(t *testing.T) {
	store.RunSuite(t, makeBase)
}

func assertGetHas(t testing.TB, kv store.ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, has, exists)
}

// TestCommitOverwrite checks that we commit properly
// and can add/overwrite/query in the next cache
func TestCommitOverwrite(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(12, 40)

	commit, _, cleanup := makeCommitStore(t)
	defer cleanup()
	defer commit.Close()

	id, err := commit.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), id.Version)
	assert.Empty(t, id.Hash)

	parent := commit.CacheWrap()
	require.NoError(t, store.SetOp(ks[1], vs[1]).Apply(parent))
	require.NoError(t, store.SetOp(ks[2], vs[2]).Apply(parent))
	require.NoError(t, parent.Write())
	id, err = commit.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	child := commit.CacheWrap()
	require.NoError(t, store.SetOp(ks[1], vs[11]).Apply(child))
	require.NoError(t, store.SetOp(ks[3], vs[7]).Apply(child))
	require.NoError(t, store.DelOp(ks[2]).Apply(child))

	// a side cache sees only the committed state
	side := commit.CacheWrap()
	assertGetHas(t, side, ks[1], vs[1], true)
	assertGetHas(t, side, ks[2], vs[2], true)
	assertGetHas(t, side, ks[3], nil, false)

	assertGetHas(t, child, ks[1], vs[11], true)
	assertGetHas(t, child, ks[2], nil, false)
	assertGetHas(t, child, ks[3], vs[7], true)

	require.NoError(t, child.Write())
	next, err := commit.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Version)
	assert.NotEqual(t, id.Hash, next.Hash)
}

func TestReloadFromDisk(t *testing.T) {
	commit, dir, cleanup := makeCommitStore(t)
	defer cleanup()

	cache := commit.CacheWrap()
	require.NoError(t, cache.Set([]byte("vault"), []byte("100")))
	require.NoError(t, cache.Write())
	want, err := commit.Commit()
	require.NoError(t, err)
	commit.Close()

	reopened := NewCommitStore(dir, "base")
	defer reopened.Close()
	require.NoError(t, reopened.LoadLatestVersion())
	got, err := reopened.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	val, err := reopened.Get([]byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, []byte("100"), val)
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = make([]byte, size)
		_, _ = rand.Read(res[i])
	}
	return res
}
