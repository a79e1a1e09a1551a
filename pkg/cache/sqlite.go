package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// SQLite wraps a Context with a persistent record cache backed by a
// SQLite database. Entries survive process restarts; the caching contract
// is otherwise the same as Memory's.
type SQLite struct {
	inner  types.Context
	policy policy

	mu sync.RWMutex
	db *sql.DB
}

// SQLiteOption configures a SQLite cache.
type SQLiteOption func(*SQLite)

// SQLiteAllowTypes restricts caching to the named record types.
func SQLiteAllowTypes(names ...string) SQLiteOption {
	return func(s *SQLite) { s.policy.allow = nameSet(names) }
}

// SQLiteExcludeTypes disables caching for the named record types.
func SQLiteExcludeTypes(names ...string) SQLiteOption {
	return func(s *SQLite) { s.policy.exclude = nameSet(names) }
}

// NewSQLite opens (creating if needed) the cache database at path and
// returns a SQLite cache wrapping inner.
func NewSQLite(inner types.Context, path string, opts ...SQLiteOption) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	s := &SQLite{inner: inner, db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the cache database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLite) store(rt *types.RecordType, rec *types.Record) error {
	if rec.ID() == "" {
		return nil
	}
	data, err := rec.WireData()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO records (type_name, base_id, record_id, payload, stored_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rt.Name(), rec.Address().BaseID(), rec.ID(), string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQLite) load(rt *types.RecordType, recordID string, addr types.BaseAndTable) (*types.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM records WHERE type_name = ? AND base_id = ? AND record_id = ?`,
		rt.Name(), addr.BaseID(), recordID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var data types.WireRecord
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, false, err
	}
	rec := rt.NewRecordAt(addr)
	if err := rec.ConsumeWireData(data); err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *SQLite) remove(rt *types.RecordType, recordID, baseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`DELETE FROM records WHERE type_name = ? AND base_id = ? AND record_id = ?`,
		rt.Name(), baseID, recordID,
	)
	return err
}

// FetchSingle returns the stored record when present, fetching and
// storing it otherwise.
func (s *SQLite) FetchSingle(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) (*types.Record, error) {
	if !s.policy.caches(rt) {
		return s.inner.FetchSingle(ctx, rt, recordID, addr)
	}
	if rec, ok, err := s.load(rt, recordID, addr); err != nil {
		return nil, err
	} else if ok {
		return rec, nil
	}
	rec, err := s.inner.FetchSingle(ctx, rt, recordID, addr)
	if err != nil {
		return nil, err
	}
	if err := s.store(rt, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchMany streams from the wrapped context, storing each record as it
// passes through.
func (s *SQLite) FetchMany(ctx context.Context, rt *types.RecordType, addr types.BaseAndTable, formula string, yield func(*types.Record) error) error {
	return s.inner.FetchMany(ctx, rt, addr, formula, func(rec *types.Record) error {
		if s.policy.caches(rt) {
			if err := s.store(rt, rec); err != nil {
				return err
			}
		}
		return yield(rec)
	})
}

// Create delegates to the wrapped context and stores the created record.
func (s *SQLite) Create(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	if err := s.inner.Create(ctx, rt, rec); err != nil {
		return err
	}
	if s.policy.caches(rt) {
		return s.store(rt, rec)
	}
	return nil
}

// Update delegates to the wrapped context and refreshes the stored entry.
func (s *SQLite) Update(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	if err := s.inner.Update(ctx, rt, rec); err != nil {
		return err
	}
	if s.policy.caches(rt) {
		return s.store(rt, rec)
	}
	return nil
}

// Delete delegates to the wrapped context and drops the stored entry.
func (s *SQLite) Delete(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) error {
	if err := s.inner.Delete(ctx, rt, recordID, addr); err != nil {
		return err
	}
	if s.policy.caches(rt) {
		return s.remove(rt, recordID, addr.BaseID())
	}
	return nil
}
