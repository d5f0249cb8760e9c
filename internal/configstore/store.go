// Package configstore holds the configuration values that the advisor
// inspects: a loosely typed Value, the Store interface keyed by hierarchical
// paths such as "Servers/1/ssl", and the memory, YAML file and SQLite
// backends.
//
// Stores are not safe for concurrent mutation. A store is owned by the
// request or command that opened it; callers serialize access.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ServersPrefix is the path prefix of server profiles. Server ids start at 1.
const ServersPrefix = "Servers/"

// Store is a hierarchical key-value configuration source.
type Store interface {
	// Get returns the value at path and whether it was present.
	Get(path string) (Value, bool, error)

	// Set writes v at path.
	Set(path string, v Value) error

	// ServerCount returns the number of configured server profiles.
	ServerCount() (int, error)
}

// Saver is implemented by stores that persist Set calls on request.
type Saver interface {
	Save(ctx context.Context) error
}

// ServerPath returns the path of field within server profile id.
func ServerPath(id int, field string) string {
	return ServersPrefix + strconv.Itoa(id) + "/" + field
}

// serverID extracts the server id from a path like "Servers/3/host".
func serverID(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, ServersPrefix)
	if !ok {
		return 0, false
	}
	idStr, _, found := strings.Cut(rest, "/")
	if !found {
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// ErrServerGap is returned when server ids do not run contiguously from 1.
var ErrServerGap = errors.New("server ids must run contiguously from 1")

// countServers returns the number of server profiles named by paths. Every
// backend counts this way: the distinct ids must be exactly 1..N, and any gap
// is an error rather than a skipped or invented profile.
func countServers(paths []string) (int, error) {
	ids := make(map[int]bool)
	highest := 0
	for _, p := range paths {
		if id, ok := serverID(p); ok {
			ids[id] = true
			highest = max(highest, id)
		}
	}
	if len(ids) != highest {
		for id := 1; id < highest; id++ {
			if !ids[id] {
				return 0, fmt.Errorf("%w: server %d is missing below %d", ErrServerGap, id, highest)
			}
		}
	}
	return highest, nil
}

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	values map[string]Value
	writes int
}

// NewMemoryStore returns a MemoryStore seeded with values.
func NewMemoryStore(values map[string]Value) *MemoryStore {
	m := &MemoryStore{values: make(map[string]Value, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get implements Store.
func (m *MemoryStore) Get(path string) (Value, bool, error) {
	v, ok := m.values[path]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(path string, v Value) error {
	m.values[path] = v
	m.writes++
	return nil
}

// ServerCount implements Store.
func (m *MemoryStore) ServerCount() (int, error) {
	return countServers(m.Paths())
}

// Writes returns how many Set calls the store has seen.
func (m *MemoryStore) Writes() int { return m.writes }

// Paths returns all stored paths in sorted order.
func (m *MemoryStore) Paths() []string {
	paths := make([]string, 0, len(m.values))
	for k := range m.values {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a copy of all values.
func (m *MemoryStore) Snapshot() map[string]Value {
	out := make(map[string]Value, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Reader reads typed values from a Store with defaults.
//
// The first store failure is kept; once it is set every accessor returns its
// default and Err reports the failure. Call Err after a batch of reads.
type Reader struct {
	store Store
	err   error
}

// NewReader returns a Reader over s.
func NewReader(s Store) *Reader {
	return &Reader{store: s}
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error { return r.err }

// Value returns the value at path, or def when it is absent.
func (r *Reader) Value(path string, def Value) Value {
	if r.err != nil {
		return def
	}
	v, ok, err := r.store.Get(path)
	if err != nil {
		r.err = fmt.Errorf("read %s: %w", path, err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// String returns the loose string reading of path.
func (r *Reader) String(path, def string) string {
	return r.Value(path, StringValue(def)).AsString()
}

// Int returns the loose integer reading of path.
func (r *Reader) Int(path string, def int64) int64 {
	return r.Value(path, IntValue(def)).AsInt()
}

// Bool returns the loose boolean reading of path.
func (r *Reader) Bool(path string, def bool) bool {
	return r.Value(path, BoolValue(def)).Truthy()
}

// ServerCount returns the store's server count, or 0 after a failure.
func (r *Reader) ServerCount() int {
	if r.err != nil {
		return 0
	}
	n, err := r.store.ServerCount()
	if err != nil {
		r.err = fmt.Errorf("count servers: %w", err)
		return 0
	}
	return n
}

// ServerName returns the display name of server id: its verbose name, else
// its host, else "localhost".
func (r *Reader) ServerName(id int) string {
	if verbose := r.String(ServerPath(id, "verbose"), ""); verbose != "" {
		return verbose
	}
	if host := r.String(ServerPath(id, "host"), ""); host != "" {
		return host
	}
	return "localhost"
}
