package configstore

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

const (
	// MaxBackups is the maximum number of store backups kept next to the file.
	MaxBackups = 3

	// BackupSuffix separates the file name from the backup timestamp.
	BackupSuffix = ".bak"

	lockRetryDelay = 50 * time.Millisecond
)

// FileStore is a Store backed by a YAML document.
//
// Nested mappings are flattened into slash-separated paths. The Servers key
// may be a sequence (first entry is server 1) or a mapping keyed by id. Either
// way every profile must hold at least one setting and ids must run
// contiguously from 1.
type FileStore struct {
	*MemoryStore
	path  string
	dirty bool
}

// LoadFile reads the YAML store at path.
func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dberrors.StoreError(fmt.Sprintf("failed to read store %s", path), err).
			WithDetail("path", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dberrors.StoreError(fmt.Sprintf("failed to parse store %s", path), err).
			WithDetail("path", path)
	}

	values := make(map[string]Value)
	if err := flattenDocument(doc, values); err != nil {
		return nil, dberrors.StoreError(fmt.Sprintf("invalid store %s", path), err).
			WithDetail("path", path)
	}

	fs := &FileStore{MemoryStore: NewMemoryStore(values), path: path}
	if _, err := fs.ServerCount(); err != nil {
		return nil, dberrors.StoreError(fmt.Sprintf("invalid store %s", path), err).
			WithDetail("path", path)
	}
	return fs, nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string { return f.path }

// Set implements Store and marks the store dirty.
func (f *FileStore) Set(path string, v Value) error {
	if err := f.MemoryStore.Set(path, v); err != nil {
		return err
	}
	f.dirty = true
	return nil
}

// Dirty reports whether Set was called since the last Save.
func (f *FileStore) Dirty() bool { return f.dirty }

// Save writes the store back to its file under a cross-process lock, after
// taking a timestamped backup of the previous content.
func (f *FileStore) Save(ctx context.Context) error {
	if !f.dirty {
		return nil
	}

	lock := flock.New(f.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return dberrors.New(dberrors.ErrCodeStoreLocked, fmt.Sprintf("failed to lock store %s", f.path), err)
	}
	defer func() { _ = lock.Unlock() }()

	count, err := f.ServerCount()
	if err != nil {
		return dberrors.WriteError("failed to encode store", err)
	}
	doc, err := unflatten(f.Snapshot(), count)
	if err != nil {
		return dberrors.WriteError("failed to encode store", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return dberrors.WriteError("failed to encode store", err)
	}

	if _, err := backupFile(f.path); err != nil {
		return dberrors.WriteError(fmt.Sprintf("failed to back up %s", f.path), err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return dberrors.WriteError(fmt.Sprintf("failed to write %s", tmp), err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return dberrors.WriteError(fmt.Sprintf("failed to replace %s", f.path), err)
	}

	f.dirty = false
	return nil
}

// flattenDocument flattens doc into values.
func flattenDocument(doc map[string]any, values map[string]Value) error {
	for key, raw := range doc {
		if key != strings.TrimSuffix(ServersPrefix, "/") {
			if err := flatten(key, raw, values); err != nil {
				return err
			}
			continue
		}

		switch servers := normalize(raw).(type) {
		case nil:
		case []any:
			for i, entry := range servers {
				if err := flattenServer(i+1, entry, values); err != nil {
					return err
				}
			}
		case map[string]any:
			for idStr, entry := range servers {
				id, err := strconv.Atoi(idStr)
				if err != nil || id < 1 {
					return fmt.Errorf("server id %q is not a positive integer", idStr)
				}
				if err := flattenServer(id, entry, values); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("Servers must be a list or a mapping, got %T", raw)
		}
	}
	return nil
}

// flattenServer flattens one profile. A profile without settings has no
// paths, so no other backend could tell it exists; it is rejected.
func flattenServer(id int, entry any, values map[string]Value) error {
	fields, ok := normalize(entry).(map[string]any)
	if !ok || len(fields) == 0 {
		return fmt.Errorf("server %d has no settings", id)
	}
	profile := make(map[string]Value)
	if err := flatten(ServersPrefix+strconv.Itoa(id), fields, profile); err != nil {
		return err
	}
	if len(profile) == 0 {
		return fmt.Errorf("server %d has no settings", id)
	}
	maps.Copy(values, profile)
	return nil
}

// normalize turns mappings with non-string keys, which yaml.v3 produces for
// keys like 1:, into string-keyed mappings.
func normalize(raw any) any {
	m, ok := raw.(map[any]any)
	if !ok {
		return raw
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func flatten(prefix string, raw any, values map[string]Value) error {
	switch t := normalize(raw).(type) {
	case map[string]any:
		for k, v := range t {
			if err := flatten(prefix+"/"+k, v, values); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, v := range t {
			if err := flatten(prefix+"/"+strconv.Itoa(i), v, values); err != nil {
				return err
			}
		}
		return nil
	}

	v, err := FromAny(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	values[prefix] = v
	return nil
}

// unflatten rebuilds a YAML document from flat paths. Servers is written as a
// sequence of serverCount entries.
func unflatten(values map[string]Value, serverCount int) (map[string]any, error) {
	doc := make(map[string]any)
	servers := make([]any, serverCount)
	for i := range servers {
		servers[i] = map[string]any{}
	}

	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		v := values[p]
		if id, ok := serverID(p); ok && id <= serverCount {
			field := strings.TrimPrefix(p, ServerPath(id, ""))
			if err := insert(servers[id-1].(map[string]any), strings.Split(field, "/"), v.Interface()); err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			continue
		}
		if err := insert(doc, strings.Split(p, "/"), v.Interface()); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if serverCount > 0 {
		doc[strings.TrimSuffix(ServersPrefix, "/")] = servers
	}
	return doc, nil
}

func insert(m map[string]any, segments []string, v any) error {
	for _, seg := range segments[:len(segments)-1] {
		next, ok := m[seg]
		if !ok {
			child := make(map[string]any)
			m[seg] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("segment %q holds a value and a mapping", seg)
		}
		m = child
	}
	last := segments[len(segments)-1]
	if _, exists := m[last]; exists {
		return fmt.Errorf("segment %q written twice", last)
	}
	m[last] = v
	return nil
}

// backupFile copies path to path.bak.<timestamp> and prunes old backups.
// A missing file needs no backup and yields an empty path.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read file for backup: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s%s.%s", path, BackupSuffix, timestamp)
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Best effort: the backup itself succeeded.
	_ = pruneBackups(path)

	return backupPath, nil
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + BackupSuffix + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	// Timestamps sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

func pruneBackups(path string) error {
	backups, err := ListBackups(path)
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
