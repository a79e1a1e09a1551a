package types

import (
	"context"
	"fmt"
	"sync"
)

// LinkFetcher retrieves a linked record by ID. Link fields bind a fetcher
// to the target type's address when they decode wire values; the fetcher
// runs at most once per link, on first access.
type LinkFetcher func(ctx context.Context, c Context, recordID string) (*Record, error)

// RecordLink is a lazy reference to one record in another (or the same)
// table. It holds an identifier, optionally the already-resolved record,
// and the fetch strategy used to resolve the identifier on first access.
type RecordLink struct {
	id     string
	record *Record
	fetch  LinkFetcher
}

// NewRecordLink returns an unresolved link to the given record ID.
func NewRecordLink(id string, fetch LinkFetcher) *RecordLink {
	return &RecordLink{id: id, fetch: fetch}
}

// LinkToRecord returns a link already resolved to rec.
func LinkToRecord(rec *Record, fetch LinkFetcher) *RecordLink {
	return &RecordLink{id: rec.ID(), record: rec, fetch: fetch}
}

// ID returns the linked record's identifier, preferring the resolved
// record's server ID. Returns ErrUnsavedReference when neither side
// carries an identifier.
func (l *RecordLink) ID() (string, error) {
	if l.record != nil && l.record.ID() != "" {
		return l.record.ID(), nil
	}
	if l.id == "" {
		return "", ErrUnsavedReference
	}
	return l.id, nil
}

// Record resolves the link, fetching the target record on first access and
// memoizing it for the link's lifetime. Subsequent calls return the cached
// record without a remote call.
func (l *RecordLink) Record(ctx context.Context, c Context) (*Record, error) {
	if l.record != nil {
		return l.record, nil
	}
	if l.fetch == nil {
		return nil, ErrNoFetcher
	}
	rec, err := l.fetch(ctx, c, l.id)
	if err != nil {
		return nil, err
	}
	l.record = rec
	return rec, nil
}

// HasFetchedRecord reports whether the link has already been resolved.
func (l *RecordLink) HasFetchedRecord() bool { return l.record != nil }

// Equal reports whether two links reference the same record: their
// identifiers match, or both have resolved to the identical record
// object. The second clause means two links resolved to one shared record
// compare equal even when their identifiers are absent; two links wrapping
// independently created unsaved records do not.
func (l *RecordLink) Equal(other *RecordLink) bool {
	if other == nil {
		return false
	}
	if l.id != "" && l.id == other.id {
		return true
	}
	return l.record != nil && l.record == other.record
}

// Clone returns an independent copy, optionally rebinding the fetch
// strategy when fetch is non-nil.
func (l *RecordLink) Clone(fetch LinkFetcher) *RecordLink {
	c := &RecordLink{id: l.id, record: l.record, fetch: l.fetch}
	if fetch != nil {
		c.fetch = fetch
	}
	return c
}

// RecordLinkCollection is an ordered list of record links sharing one
// fetch strategy, deduplicated by identifier.
type RecordLinkCollection struct {
	items []*RecordLink
	fetch LinkFetcher
}

// NewRecordLinkCollection returns an empty collection bound to fetch.
func NewRecordLinkCollection(fetch LinkFetcher) *RecordLinkCollection {
	return &RecordLinkCollection{fetch: fetch}
}

// Clone returns an independent copy; the contained links are cloned and
// rebound to the collection's fetch strategy.
func (c *RecordLinkCollection) Clone() *RecordLinkCollection {
	clone := &RecordLinkCollection{
		items: make([]*RecordLink, 0, len(c.items)),
		fetch: c.fetch,
	}
	for _, item := range c.items {
		clone.items = append(clone.items, item.Clone(c.fetch))
	}
	return clone
}

// Len returns the number of links.
func (c *RecordLinkCollection) Len() int { return len(c.items) }

// Clear removes every link.
func (c *RecordLinkCollection) Clear() { c.items = nil }

// Links returns the contained links in order. The returned slice must not
// be modified.
func (c *RecordLinkCollection) Links() []*RecordLink { return c.items }

func (c *RecordLinkCollection) indexOf(link *RecordLink) int {
	for i, item := range c.items {
		if item.Equal(link) {
			return i
		}
	}
	return -1
}

func (c *RecordLinkCollection) add(link *RecordLink) {
	if i := c.indexOf(link); i >= 0 {
		// Same identifier already present. Upgrade the slot in place
		// when the existing entry is unresolved and the new one carries
		// the concrete record.
		if link.HasFetchedRecord() && !c.items[i].HasFetchedRecord() {
			c.items[i] = link
		}
		return
	}
	c.items = append(c.items, link)
}

// Add appends an unresolved link to the given record ID, deduplicating by
// identifier.
func (c *RecordLinkCollection) Add(recordID string) {
	c.add(NewRecordLink(recordID, c.fetch))
}

// AddRecord appends a link resolved to rec, upgrading an existing
// unresolved entry with the same identifier in place.
func (c *RecordLinkCollection) AddRecord(rec *Record) {
	c.add(LinkToRecord(rec, c.fetch))
}

// Remove drops the link with the given record ID, if present.
func (c *RecordLinkCollection) Remove(recordID string) {
	c.remove(NewRecordLink(recordID, c.fetch))
}

// RemoveRecord drops the link referencing rec, if present.
func (c *RecordLinkCollection) RemoveRecord(rec *Record) {
	c.remove(LinkToRecord(rec, c.fetch))
}

func (c *RecordLinkCollection) remove(link *RecordLink) {
	if i := c.indexOf(link); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Contains reports whether a link with the given record ID is present.
func (c *RecordLinkCollection) Contains(recordID string) bool {
	return c.indexOf(NewRecordLink(recordID, c.fetch)) >= 0
}

// IDs returns the linked record identifiers in order. Links referencing
// unsaved records surface ErrUnsavedReference.
func (c *RecordLinkCollection) IDs() ([]string, error) {
	ids := make([]string, 0, len(c.items))
	for _, item := range c.items {
		id, err := item.ID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Records resolves every link in order, fetching unresolved ones.
func (c *RecordLinkCollection) Records(ctx context.Context, cc Context) ([]*Record, error) {
	records := make([]*Record, 0, len(c.items))
	for _, item := range c.items {
		rec, err := item.Record(ctx, cc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Equal reports whether both collections hold pairwise-equal links in the
// same order.
func (c *RecordLinkCollection) Equal(other *RecordLinkCollection) bool {
	if other == nil || len(c.items) != len(other.items) {
		return false
	}
	for i, item := range c.items {
		if !item.Equal(other.items[i]) {
			return false
		}
	}
	return true
}

// LinkTarget names the record type a link field points at, either
// directly or deferred by name through a registry. Deferred targets keep
// mutually linked record types definable in either order.
type LinkTarget interface {
	resolveTarget() (*RecordType, error)
}

type directTarget struct{ rt *RecordType }

func (t directTarget) resolveTarget() (*RecordType, error) { return t.rt, nil }

type namedTarget struct {
	registry *Registry
	name     string
}

func (t namedTarget) resolveTarget() (*RecordType, error) {
	return t.registry.Lookup(t.name)
}

// Target points a link field at an already-constructed record type.
func Target(rt *RecordType) LinkTarget { return directTarget{rt: rt} }

// TargetName points a link field at the record type registered under name
// in the default registry, resolved lazily on first use.
func TargetName(name string) LinkTarget {
	return namedTarget{registry: DefaultRegistry, name: name}
}

// TargetNameIn is TargetName against an explicit registry.
func TargetNameIn(reg *Registry, name string) LinkTarget {
	return namedTarget{registry: reg, name: name}
}

// linkField carries the target resolution shared by both link field types.
type linkField struct {
	baseField
	target LinkTarget

	mu       sync.Mutex
	resolved *RecordType
}

func (f *linkField) targetType() (*RecordType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved == nil {
		rt, err := f.target.resolveTarget()
		if err != nil {
			return nil, err
		}
		f.resolved = rt
	}
	return f.resolved, nil
}

// fetcherFor binds a fetch strategy to the target type's address. When the
// target type leaves its base unset, the calling record's base fills it
// in, so links can follow per-instance base overrides.
func (f *linkField) fetcherFor(caller BaseAndTable) (LinkFetcher, *RecordType, error) {
	rt, err := f.targetType()
	if err != nil {
		return nil, nil, err
	}
	addr := rt.Address()
	if addr.BaseID() == "" {
		addr = addr.WithBaseID(caller.BaseID())
	}
	fetch := func(ctx context.Context, c Context, recordID string) (*Record, error) {
		return c.FetchSingle(ctx, rt, recordID, addr)
	}
	return fetch, rt, nil
}

// SingleRecordLinkField maps a column linking to at most one record of a
// target type. The wire value is a one-element array of record IDs.
type SingleRecordLinkField struct {
	linkField
}

// NewSingleRecordLinkField returns a single-link field bound to the given
// column and target.
func NewSingleRecordLinkField(column string, target LinkTarget, opts ...FieldOption) *SingleRecordLinkField {
	return &SingleRecordLinkField{linkField: linkField{
		baseField: newBaseField(column, opts...),
		target:    target,
	}}
}

func (f *SingleRecordLinkField) Decode(wire any, addr BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
		if len(v) > 1 {
			return nil, fmt.Errorf("%w: link field %q: multiple records returned", ErrInvalidValue, f.column)
		}
		id, ok := v[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: link field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
		}
		fetch, _, err := f.fetcherFor(addr)
		if err != nil {
			return nil, err
		}
		return NewRecordLink(id, fetch), nil
	default:
		return nil, fmt.Errorf("%w: link field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *SingleRecordLinkField) Encode(value any) (any, error) {
	link, _ := value.(*RecordLink)
	if link == nil {
		return []any{}, nil
	}
	id, err := link.ID()
	if err != nil {
		return nil, fmt.Errorf("link field %q: %w", f.column, err)
	}
	return []any{id}, nil
}

func (f *SingleRecordLinkField) Validate(value any, addr BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *RecordLink:
		return v, nil
	case *Record:
		fetch, rt, err := f.fetcherFor(addr)
		if err != nil {
			return nil, err
		}
		if err := rt.Address().EnsureMatch(v.Address()); err != nil {
			return nil, fmt.Errorf("link field %q: %w", f.column, err)
		}
		return LinkToRecord(v, fetch), nil
	default:
		return nil, fmt.Errorf("%w: link field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

func (f *SingleRecordLinkField) CloneValue(value any) any {
	if link, ok := value.(*RecordLink); ok && link != nil {
		return link.Clone(nil)
	}
	return value
}

func (f *SingleRecordLinkField) IsSameValue(a, b any) bool {
	la, aok := a.(*RecordLink)
	lb, bok := b.(*RecordLink)
	if aok && bok && la != nil {
		return la.Equal(lb)
	}
	return a == nil && b == nil
}

// MultipleRecordLinkField maps a column linking to any number of records
// of a target type. The wire value is an array of record IDs.
type MultipleRecordLinkField struct {
	linkField
}

// NewMultipleRecordLinkField returns a multi-link field bound to the
// given column and target.
func NewMultipleRecordLinkField(column string, target LinkTarget, opts ...FieldOption) *MultipleRecordLinkField {
	return &MultipleRecordLinkField{linkField: linkField{
		baseField: newBaseField(column, opts...),
		target:    target,
	}}
}

func (f *MultipleRecordLinkField) Decode(wire any, addr BaseAndTable) (any, error) {
	fetch, _, err := f.fetcherFor(addr)
	if err != nil {
		return nil, err
	}
	collection := NewRecordLinkCollection(fetch)
	switch v := wire.(type) {
	case nil:
		return collection, nil
	case []any:
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: link field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
			}
			collection.Add(id)
		}
		return collection, nil
	default:
		return nil, fmt.Errorf("%w: link field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *MultipleRecordLinkField) Encode(value any) (any, error) {
	collection, _ := value.(*RecordLinkCollection)
	if collection == nil || collection.Len() == 0 {
		return nil, nil
	}
	ids, err := collection.IDs()
	if err != nil {
		return nil, fmt.Errorf("link field %q: %w", f.column, err)
	}
	wire := make([]any, 0, len(ids))
	for _, id := range ids {
		wire = append(wire, id)
	}
	return wire, nil
}

func (f *MultipleRecordLinkField) Validate(value any, addr BaseAndTable) (any, error) {
	if existing, ok := value.(*RecordLinkCollection); ok {
		if existing == nil {
			value = nil
		} else {
			return existing.Clone(), nil
		}
	}
	fetch, rt, err := f.fetcherFor(addr)
	if err != nil {
		return nil, err
	}
	collection := NewRecordLinkCollection(fetch)
	switch v := value.(type) {
	case nil:
	case []string:
		for _, id := range v {
			collection.Add(id)
		}
	case []*Record:
		for _, rec := range v {
			if err := rt.Address().EnsureMatch(rec.Address()); err != nil {
				return nil, fmt.Errorf("link field %q: %w", f.column, err)
			}
			collection.AddRecord(rec)
		}
	case []any:
		for _, item := range v {
			switch t := item.(type) {
			case string:
				collection.Add(t)
			case *Record:
				if err := rt.Address().EnsureMatch(t.Address()); err != nil {
					return nil, fmt.Errorf("link field %q: %w", f.column, err)
				}
				collection.AddRecord(t)
			default:
				return nil, fmt.Errorf("%w: link field %q: cannot accept element %T", ErrInvalidValue, f.column, item)
			}
		}
	default:
		return nil, fmt.Errorf("%w: link field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
	return collection, nil
}

func (f *MultipleRecordLinkField) CloneValue(value any) any {
	if collection, ok := value.(*RecordLinkCollection); ok && collection != nil {
		return collection.Clone()
	}
	return value
}

func (f *MultipleRecordLinkField) IsSameValue(a, b any) bool {
	ca, aok := a.(*RecordLinkCollection)
	cb, bok := b.(*RecordLinkCollection)
	if aok && bok && ca != nil {
		return ca.Equal(cb)
	}
	return a == nil && b == nil
}
