package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

// DefaultMemorySize is the default entry capacity of a Memory cache.
const DefaultMemorySize = 4096

// Memory wraps a Context with a bounded in-process LRU record cache.
type Memory struct {
	inner  types.Context
	lru    *lru.Cache[string, *types.Record]
	policy policy
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// AllowTypes restricts caching to the named record types.
func AllowTypes(names ...string) MemoryOption {
	return func(m *Memory) { m.policy.allow = nameSet(names) }
}

// ExcludeTypes disables caching for the named record types.
func ExcludeTypes(names ...string) MemoryOption {
	return func(m *Memory) { m.policy.exclude = nameSet(names) }
}

// NewMemory returns a Memory cache of the given capacity wrapping inner.
// A non-positive size uses DefaultMemorySize.
func NewMemory(inner types.Context, size int, opts ...MemoryOption) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	m := &Memory{inner: inner}
	for _, opt := range opts {
		opt(m)
	}
	cache, err := lru.New[string, *types.Record](size)
	if err != nil {
		return nil, err
	}
	m.lru = cache
	return m, nil
}

func (m *Memory) store(rt *types.RecordType, rec *types.Record) {
	if rec.ID() == "" {
		return
	}
	m.lru.Add(cacheKey(rt, rec.Address().BaseID(), rec.ID()), rec)
}

// FetchSingle returns the cached record when present, fetching and
// caching it otherwise.
func (m *Memory) FetchSingle(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) (*types.Record, error) {
	if !m.policy.caches(rt) {
		return m.inner.FetchSingle(ctx, rt, recordID, addr)
	}
	if rec, ok := m.lru.Get(cacheKey(rt, addr.BaseID(), recordID)); ok {
		return rec, nil
	}
	rec, err := m.inner.FetchSingle(ctx, rt, recordID, addr)
	if err != nil {
		return nil, err
	}
	m.store(rt, rec)
	return rec, nil
}

// FetchMany streams from the wrapped context, caching each record as it
// passes through.
func (m *Memory) FetchMany(ctx context.Context, rt *types.RecordType, addr types.BaseAndTable, formula string, yield func(*types.Record) error) error {
	return m.inner.FetchMany(ctx, rt, addr, formula, func(rec *types.Record) error {
		if m.policy.caches(rt) {
			m.store(rt, rec)
		}
		return yield(rec)
	})
}

// Create delegates to the wrapped context and caches the created record.
func (m *Memory) Create(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	if err := m.inner.Create(ctx, rt, rec); err != nil {
		return err
	}
	if m.policy.caches(rt) {
		m.store(rt, rec)
	}
	return nil
}

// Update delegates to the wrapped context and refreshes the cache entry.
func (m *Memory) Update(ctx context.Context, rt *types.RecordType, rec *types.Record) error {
	if err := m.inner.Update(ctx, rt, rec); err != nil {
		return err
	}
	if m.policy.caches(rt) {
		m.store(rt, rec)
	}
	return nil
}

// Delete delegates to the wrapped context and drops the cache entry.
func (m *Memory) Delete(ctx context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) error {
	if err := m.inner.Delete(ctx, rt, recordID, addr); err != nil {
		return err
	}
	if m.policy.caches(rt) {
		m.lru.Remove(cacheKey(rt, addr.BaseID(), recordID))
	}
	return nil
}

// Precache stores already-fetched records, so later link resolutions hit
// the cache instead of the network.
func (m *Memory) Precache(records ...*types.Record) {
	for _, rec := range records {
		if m.policy.caches(rec.Type()) {
			m.store(rec.Type(), rec)
		}
	}
}
