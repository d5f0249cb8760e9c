package configstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

const (
	sqliteOpTimeout   = 5 * time.Second
	sqliteBusyTimeout = 5000 // milliseconds
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	path       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	value      BLOB,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const upsertSettingSQL = `
	INSERT INTO settings (path, kind, value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(path) DO UPDATE SET
		kind = excluded.kind,
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
`

// SQLiteStore is a Store persisted in a SQLite database. Every Set is
// written immediately.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the SQLite store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dberrors.StoreError("failed to open sqlite store", err).WithDetail("path", path)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = "+strconv.Itoa(sqliteBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, dberrors.StoreError("failed to configure sqlite store", err).WithDetail("path", path)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, dberrors.StoreError("failed to apply sqlite schema", err).WithDetail("path", path)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Get implements Store.
func (s *SQLiteStore) Get(path string) (Value, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	var kind string
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT kind, value FROM settings WHERE path = ?`, path).Scan(&kind, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return NullValue(), false, nil
	}
	if err != nil {
		return NullValue(), false, fmt.Errorf("sqlite: get %q: %w", path, err)
	}

	v, err := decodeSetting(kind, raw)
	if err != nil {
		return NullValue(), false, fmt.Errorf("sqlite: decode %q: %w", path, err)
	}
	return v, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(path string, v Value) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, upsertSettingSQL, path, v.Kind().String(), encodeSetting(v)); err != nil {
		return fmt.Errorf("sqlite: set %q: %w", path, err)
	}
	return nil
}

// ServerCount implements Store.
func (s *SQLiteStore) ServerCount() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT path FROM settings WHERE path LIKE ?`, ServersPrefix+"%")
	if err != nil {
		return 0, fmt.Errorf("sqlite: list servers: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return 0, fmt.Errorf("sqlite: scan server path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("sqlite: iterate server paths: %w", err)
	}
	return countServers(paths)
}

// Import upserts values in a single transaction.
func (s *SQLiteStore) Import(ctx context.Context, values map[string]Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after successful Commit

	stmt, err := tx.PrepareContext(ctx, upsertSettingSQL)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for path, v := range values {
		if _, err := stmt.ExecContext(ctx, path, v.Kind().String(), encodeSetting(v)); err != nil {
			return fmt.Errorf("sqlite: import %q: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func encodeSetting(v Value) []byte {
	switch v.Kind() {
	case KindBool:
		if v.Truthy() {
			return []byte("1")
		}
		return []byte("0")
	default:
		return []byte(v.AsString())
	}
}

func decodeSetting(kind string, raw []byte) (Value, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return NullValue(), err
	}
	switch k {
	case KindString:
		return StringValue(string(raw)), nil
	case KindInt:
		i, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return NullValue(), err
		}
		return IntValue(i), nil
	case KindBool:
		return BoolValue(string(raw) == "1"), nil
	default:
		return NullValue(), nil
	}
}
