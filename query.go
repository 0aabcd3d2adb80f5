package barter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iov-one/barter/errors"
)

// Query modifiers follow the path after a question mark, as in
// "/escrows?prefix".
const (
	// KeyQueryMod returns the record stored under the exact key.
	KeyQueryMod = ""
	// PrefixQueryMod returns all records which key starts with the data.
	PrefixQueryMod = "prefix"
)

// isQueryPath accepts "/" and slash separated bucket and index names.
var isQueryPath = regexp.MustCompile(`^/([a-zA-Z0-9_]+(/[a-zA-Z0-9_]+)*)?$`).MatchString

// Model is a single key value pair returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}

// QueryHandler answers queries for a single path. mod is one of the query
// modifiers.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister adds the query handlers of one extension to a router.
type QueryRegister func(QueryRouter)

// QueryRouter maps query paths to their handlers.
type QueryRouter struct {
	routes map[string]QueryHandler
}

// NewQueryRouter returns a router without any path.
func NewQueryRouter() QueryRouter {
	return QueryRouter{
		routes: make(map[string]QueryHandler, 10),
	}
}

// RegisterAll calls every register function with this router.
func (r QueryRouter) RegisterAll(qr ...QueryRegister) {
	for _, q := range qr {
		q(r)
	}
}

// Register binds h to path. It panics on a malformed path or when the
// path is taken.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if !isQueryPath(path) {
		panic(fmt.Sprintf("invalid query path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering query path: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the handler bound to path, or nil.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// Query splits the modifier from path and runs the bound handler. An
// unknown path is ErrNotFound.
func (r QueryRouter) Query(db ReadOnlyKVStore, path string, data []byte) ([]Model, error) {
	var mod string
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, mod = path[:i], path[i+1:]
	}
	h, ok := r.routes[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "query path %q", path)
	}
	return h.Query(db, mod, data)
}
