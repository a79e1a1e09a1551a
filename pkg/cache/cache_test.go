package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

// countingContext serves canned records and counts remote calls.
type countingContext struct {
	records map[string]types.WireRecord
	fetches int
	lists   int
	creates int
	updates int
	deletes int
}

func (c *countingContext) FetchSingle(_ context.Context, rt *types.RecordType, recordID string, addr types.BaseAndTable) (*types.Record, error) {
	c.fetches++
	data, ok := c.records[recordID]
	if !ok {
		return nil, types.ErrRecordNotFound
	}
	rec := rt.NewRecordAt(addr)
	if err := rec.ConsumeWireData(data); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *countingContext) FetchMany(_ context.Context, rt *types.RecordType, addr types.BaseAndTable, _ string, yield func(*types.Record) error) error {
	c.lists++
	for _, data := range c.records {
		rec := rt.NewRecordAt(addr)
		if err := rec.ConsumeWireData(data); err != nil {
			return err
		}
		if err := yield(rec); err != nil {
			return err
		}
	}
	return nil
}

func (c *countingContext) Create(_ context.Context, _ *types.RecordType, rec *types.Record) error {
	c.creates++
	fields, err := rec.EncodeFields(false)
	if err != nil {
		return err
	}
	return rec.ConsumeWireData(types.WireRecord{
		ID:          "recNEW",
		CreatedTime: "2024-05-01T00:00:00.000Z",
		Fields:      fields,
	})
}

func (c *countingContext) Update(context.Context, *types.RecordType, *types.Record) error {
	c.updates++
	return nil
}

func (c *countingContext) Delete(_ context.Context, _ *types.RecordType, recordID string, _ types.BaseAndTable) error {
	c.deletes++
	delete(c.records, recordID)
	return nil
}

func cacheTestType(name string) *types.RecordType {
	return types.NewRecordType(name, types.TypeConfig{BaseID: "appA", TableID: name + "s"},
		types.Def("Name", types.NewStringField("Name")),
	)
}

func cacheTestWire(id, name string) types.WireRecord {
	return types.WireRecord{
		ID:          id,
		CreatedTime: "2024-01-01T00:00:00.000Z",
		Fields:      map[string]any{"Name": name},
	}
}

func TestMemoryFetchSingleCachesRecord(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{records: map[string]types.WireRecord{"rec1": cacheTestWire("rec1", "one")}}

	m, err := NewMemory(inner, 0)
	require.NoError(t, err)

	first, err := m.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	second, err := m.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.fetches, "second lookup must hit the cache")
}

func TestMemoryFetchManyStoresThrough(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{records: map[string]types.WireRecord{"rec1": cacheTestWire("rec1", "one")}}

	m, err := NewMemory(inner, 0)
	require.NoError(t, err)

	require.NoError(t, m.FetchMany(ctx, rt, rt.Address(), "", func(*types.Record) error { return nil }))

	_, err = m.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	assert.Equal(t, 0, inner.fetches, "listed records are served from the cache")
}

func TestMemoryCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{records: map[string]types.WireRecord{}}

	m, err := NewMemory(inner, 0)
	require.NoError(t, err)

	rec := rt.NewRecord()
	require.NoError(t, rec.Set("Name", "new"))
	require.NoError(t, m.Create(ctx, rt, rec))
	assert.Equal(t, 1, inner.creates)

	got, err := m.FetchSingle(ctx, rt, "recNEW", rt.Address())
	require.NoError(t, err)
	assert.Same(t, rec, got)
	assert.Equal(t, 0, inner.fetches)

	require.NoError(t, m.Delete(ctx, rt, "recNEW", rt.Address()))
	assert.Equal(t, 1, inner.deletes)

	_, err = m.FetchSingle(ctx, rt, "recNEW", rt.Address())
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
	assert.Equal(t, 1, inner.fetches, "deleted entry must not be served")
}

func TestMemoryPrecache(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{}

	m, err := NewMemory(inner, 0)
	require.NoError(t, err)

	rec := rt.NewRecord()
	require.NoError(t, rec.ConsumeWireData(cacheTestWire("rec1", "one")))
	m.Precache(rec)

	got, err := m.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	assert.Same(t, rec, got)
	assert.Equal(t, 0, inner.fetches)
}

func TestMemoryTypePolicy(t *testing.T) {
	ctx := context.Background()
	cached := cacheTestType("Task")
	skipped := cacheTestType("Event")
	inner := &countingContext{records: map[string]types.WireRecord{"rec1": cacheTestWire("rec1", "one")}}

	m, err := NewMemory(inner, 0, AllowTypes("Task"))
	require.NoError(t, err)

	_, err = m.FetchSingle(ctx, cached, "rec1", cached.Address())
	require.NoError(t, err)
	_, err = m.FetchSingle(ctx, cached, "rec1", cached.Address())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.fetches)

	_, err = m.FetchSingle(ctx, skipped, "rec1", skipped.Address())
	require.NoError(t, err)
	_, err = m.FetchSingle(ctx, skipped, "rec1", skipped.Address())
	require.NoError(t, err)
	assert.Equal(t, 3, inner.fetches, "unlisted types always go remote")
}

func TestPolicyCaches(t *testing.T) {
	task := cacheTestType("Task")
	event := cacheTestType("Event")

	tests := []struct {
		name string
		p    policy
		rt   *types.RecordType
		want bool
	}{
		{name: "default caches everything", p: policy{}, rt: task, want: true},
		{name: "allowed type", p: policy{allow: nameSet([]string{"Task"})}, rt: task, want: true},
		{name: "not allowed", p: policy{allow: nameSet([]string{"Task"})}, rt: event, want: false},
		{name: "excluded type", p: policy{exclude: nameSet([]string{"Task"})}, rt: task, want: false},
		{
			name: "exclusion beats allowance",
			p:    policy{allow: nameSet([]string{"Task"}), exclude: nameSet([]string{"Task"})},
			rt:   task,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.caches(tt.rt))
		})
	}
}

func TestSQLiteFetchSinglePersists(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	path := filepath.Join(t.TempDir(), "cache.db")
	inner := &countingContext{records: map[string]types.WireRecord{"rec1": cacheTestWire("rec1", "one")}}

	s, err := NewSQLite(inner, path)
	require.NoError(t, err)

	_, err = s.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// A fresh cache over the same file serves the stored entry.
	reopened, err := NewSQLite(inner, path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID())

	name, err := rec.StringValue("Name")
	assert.NoError(t, err)
	assert.Equal(t, "one", name)
	assert.Equal(t, 1, inner.fetches, "reopened cache must not refetch")
}

func TestSQLiteDeleteDropsEntry(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{records: map[string]types.WireRecord{"rec1": cacheTestWire("rec1", "one")}}

	s, err := NewSQLite(inner, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rt, "rec1", rt.Address()))
	assert.Equal(t, 1, inner.deletes)

	_, err = s.FetchSingle(ctx, rt, "rec1", rt.Address())
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestSQLiteCreateStoresRecord(t *testing.T) {
	ctx := context.Background()
	rt := cacheTestType("Task")
	inner := &countingContext{records: map[string]types.WireRecord{}}

	s, err := NewSQLite(inner, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	rec := rt.NewRecord()
	require.NoError(t, rec.Set("Name", "new"))
	require.NoError(t, s.Create(ctx, rt, rec))

	got, err := s.FetchSingle(ctx, rt, "recNEW", rt.Address())
	require.NoError(t, err)
	assert.Equal(t, "recNEW", got.ID())
	assert.Equal(t, 0, inner.fetches)
}

func TestSQLiteKeepsReadOnlyColumns(t *testing.T) {
	ctx := context.Background()
	rt := types.NewRecordType("Page", types.TypeConfig{BaseID: "appA", TableID: "Pages"},
		types.Def("Name", types.NewStringField("Name")),
		types.Def("Slug", types.NewStringField("Slug", types.ReadOnly())),
	)
	inner := &countingContext{records: map[string]types.WireRecord{
		"rec1": {
			ID:          "rec1",
			CreatedTime: "2024-01-01T00:00:00.000Z",
			Fields:      map[string]any{"Name": "one", "Slug": "one-slug"},
		},
	}}

	s, err := NewSQLite(inner, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	first, err := s.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	slug, err := first.StringValue("Slug")
	require.NoError(t, err)
	require.Equal(t, "one-slug", slug)

	// The second fetch is served from the cache and must retain the
	// read-only column.
	cached, err := s.FetchSingle(ctx, rt, "rec1", rt.Address())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.fetches)

	slug, err = cached.StringValue("Slug")
	assert.NoError(t, err)
	assert.Equal(t, "one-slug", slug)
}
