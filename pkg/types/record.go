package types

import (
	"context"
	"fmt"
	"time"
)

// WireRecord is the record shape the remote API consumes and produces.
type WireRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// Record is one row of a table: a server-assigned identifier and creation
// timestamp (absent until first save), the current field values, and a
// snapshot of each value at the last sync point for dirty-field
// computation. The two value maps always share the record type's declared
// field-name key set.
type Record struct {
	rt          *RecordType
	addr        BaseAndTable
	id          string
	createdTime time.Time
	values      map[string]any
	original    map[string]any

	// readOnlyWire holds the raw wire values of read-only columns from the
	// last hydration. Read-only fields cannot be re-encoded, so WireData
	// carries these through verbatim.
	readOnlyWire map[string]any
}

// NewRecord constructs a transient record with every field decoded from
// absence. Fields declaring a default value start dirty with that value,
// so creation sends them.
func (rt *RecordType) NewRecord() *Record {
	return rt.NewRecordAt(BaseAndTable{})
}

// NewRecordAt is NewRecord with a per-instance address override, used when
// hydrating records fetched through a query or link whose base differs
// from the type-level default.
func (rt *RecordType) NewRecordAt(addr BaseAndTable) *Record {
	r := &Record{
		rt:       rt,
		addr:     addr,
		values:   make(map[string]any, len(rt.fields)),
		original: make(map[string]any, len(rt.fields)),
	}
	for _, def := range rt.fields {
		value, err := def.Type.Decode(nil, r.Address())
		if err != nil {
			// Decoding absence is infallible for all shipped field types;
			// a failure here is a broken custom FieldType.
			panic(fmt.Sprintf("types: field %q cannot decode absence: %v", def.Name, err))
		}
		r.values[def.Name] = value
	}
	r.resetBaseline()
	for _, def := range rt.fields {
		d, ok := def.Type.(defaulter)
		if !ok || d.defaultValue() == nil {
			continue
		}
		if err := r.Set(def.Name, d.defaultValue()); err != nil {
			panic(fmt.Sprintf("types: field %q rejects its own default: %v", def.Name, err))
		}
	}
	return r
}

// Type returns the record's record type.
func (r *Record) Type() *RecordType { return r.rt }

// ID returns the server-assigned identifier, or "" for a transient record.
func (r *Record) ID() string { return r.id }

// CreatedTime returns the server-assigned creation timestamp; zero for a
// transient record.
func (r *Record) CreatedTime() time.Time { return r.createdTime }

// Address returns the record's effective address: the per-instance
// override with unset halves filled from the type-level default.
func (r *Record) Address() BaseAndTable {
	return r.addr.Merge(r.rt.addr)
}

// SetBaseID overrides the record's base ID.
func (r *Record) SetBaseID(baseID string) {
	r.addr = r.addr.WithBaseID(baseID)
}

// SetTableID overrides the record's table ID.
func (r *Record) SetTableID(tableID string) {
	r.addr = r.addr.WithTableID(tableID)
}

// Get returns the current value of the named field. The stored value is
// returned directly, not a copy: mutating a returned ValueSet or link
// collection marks the field dirty.
func (r *Record) Get(name string) (any, error) {
	value, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return value, nil
}

// Set validates and stores a new value for the named field. Assigning to
// a read-only field is rejected once the record has a server ID;
// creation-time writes pass.
func (r *Record) Set(name string, value any) error {
	ft, ok := r.rt.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	if r.rt.fieldReadOnly(ft) && r.id != "" {
		return fmt.Errorf("%w: %q", ErrReadOnlyField, name)
	}
	validated, err := ft.Validate(value, r.Address())
	if err != nil {
		return err
	}
	r.values[name] = validated
	return nil
}

// StringValue returns a string field's value.
func (r *Record) StringValue(name string) (string, error) {
	value, err := r.Get(name)
	if err != nil {
		return "", err
	}
	s, _ := value.(string)
	return s, nil
}

// IntValue returns an integer field's value; ok is false when absent.
func (r *Record) IntValue(name string) (value int64, ok bool, err error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, false, err
	}
	value, ok = v.(int64)
	return value, ok, nil
}

// FloatValue returns a float field's value; ok is false when absent.
func (r *Record) FloatValue(name string) (value float64, ok bool, err error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, false, err
	}
	value, ok = v.(float64)
	return value, ok, nil
}

// BoolValue returns a boolean field's value.
func (r *Record) BoolValue(name string) (bool, error) {
	value, err := r.Get(name)
	if err != nil {
		return false, err
	}
	b, _ := value.(bool)
	return b, nil
}

// TimeValue returns a date or datetime field's value; ok is false when
// absent.
func (r *Record) TimeValue(name string) (value time.Time, ok bool, err error) {
	v, err := r.Get(name)
	if err != nil {
		return time.Time{}, false, err
	}
	value, ok = v.(time.Time)
	return value, ok, nil
}

// MultiSelect returns a multiple-selection field's value set.
func (r *Record) MultiSelect(name string) (*ValueSet, error) {
	value, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	set, _ := value.(*ValueSet)
	return set, nil
}

// Link returns a single-link field's record link, nil when unset.
func (r *Record) Link(name string) (*RecordLink, error) {
	value, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	link, _ := value.(*RecordLink)
	return link, nil
}

// Links returns a multi-link field's link collection.
func (r *Record) Links(name string) (*RecordLinkCollection, error) {
	value, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	collection, _ := value.(*RecordLinkCollection)
	return collection, nil
}

// Attachments returns an attachment field's descriptors.
func (r *Record) Attachments(name string) ([]Attachment, error) {
	value, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	attachments, _ := value.([]Attachment)
	return attachments, nil
}

// resetBaseline snapshots every current value as the new dirty baseline.
func (r *Record) resetBaseline() {
	for _, def := range r.rt.fields {
		r.original[def.Name] = def.Type.CloneValue(r.values[def.Name])
	}
}

// resetToAbsent rewrites both value maps as if every field decoded from
// absence, so the record reads as unmodified and blank.
func (r *Record) resetToAbsent() error {
	r.readOnlyWire = nil
	for _, def := range r.rt.fields {
		value, err := def.Type.Decode(nil, r.Address())
		if err != nil {
			return err
		}
		r.values[def.Name] = value
		r.original[def.Name] = def.Type.CloneValue(value)
	}
	return nil
}

// DirtyFieldNames returns, in declaration order, the names of fields whose
// current value differs from the last-sync snapshot. Read-only fields are
// never dirty.
func (r *Record) DirtyFieldNames() []string {
	var dirty []string
	for _, def := range r.rt.fields {
		if r.rt.fieldReadOnly(def.Type) {
			continue
		}
		if !def.Type.IsSameValue(r.values[def.Name], r.original[def.Name]) {
			dirty = append(dirty, def.Name)
		}
	}
	return dirty
}

// IsDirty reports whether any field is dirty.
func (r *Record) IsDirty() bool {
	return len(r.DirtyFieldNames()) > 0
}

// EncodeFields encodes fields into an outbound payload keyed by wire
// column name. Read-only fields are always excluded; clean fields are
// excluded unless includeClean is set.
func (r *Record) EncodeFields(includeClean bool) (map[string]any, error) {
	payload := make(map[string]any)
	for _, def := range r.rt.fields {
		if r.rt.fieldReadOnly(def.Type) {
			continue
		}
		current := r.values[def.Name]
		if !includeClean && def.Type.IsSameValue(current, r.original[def.Name]) {
			continue
		}
		wire, err := def.Type.Encode(current)
		if err != nil {
			return nil, err
		}
		payload[def.Type.ColumnName()] = wire
	}
	return payload, nil
}

// ConsumeWireData hydrates the record from a wire record, replacing the
// identifier, creation timestamp, and every field value. Columns absent
// from the wire data decode from absence. Hydration re-establishes the
// dirty baseline: a freshly hydrated record is never dirty.
func (r *Record) ConsumeWireData(data WireRecord) error {
	createdTime, err := parseWireTimestamp(data.CreatedTime)
	if err != nil {
		return err
	}
	addr := r.Address()
	decoded := make(map[string]any, len(r.rt.fields))
	readOnlyWire := make(map[string]any)
	for _, def := range r.rt.fields {
		raw := data.Fields[def.Type.ColumnName()]
		value, err := def.Type.Decode(raw, addr)
		if err != nil {
			return err
		}
		decoded[def.Name] = value
		if r.rt.fieldReadOnly(def.Type) && raw != nil {
			readOnlyWire[def.Type.ColumnName()] = raw
		}
	}
	r.id = data.ID
	r.createdTime = createdTime
	for name, value := range decoded {
		r.values[name] = value
	}
	r.readOnlyWire = readOnlyWire
	r.resetBaseline()
	return nil
}

// WireData encodes the record back into wire shape, including clean
// fields. Fields encoding to nil are omitted, matching the wire convention
// of absent-when-empty. Read-only columns are reproduced from the raw wire
// values of the last hydration, so the result round-trips through
// ConsumeWireData without loss.
func (r *Record) WireData() (WireRecord, error) {
	fields, err := r.EncodeFields(true)
	if err != nil {
		return WireRecord{}, err
	}
	for column, value := range fields {
		if value == nil {
			delete(fields, column)
		}
	}
	for column, raw := range r.readOnlyWire {
		fields[column] = raw
	}
	data := WireRecord{ID: r.id, Fields: fields}
	if !r.createdTime.IsZero() {
		data.CreatedTime = r.createdTime.UTC().Format(datetimeEncodeLayout)
	}
	return data, nil
}

// NormalizeFields applies each field's normalization function, feeding it
// the source field's value when one is named and skipping filled fields
// when the field opts into that.
func (r *Record) NormalizeFields() error {
	for _, def := range r.rt.fields {
		n, ok := def.Type.(normalizable)
		if !ok {
			continue
		}
		norm := n.normalization()
		if norm.fn == nil {
			continue
		}
		if norm.skipIfFilled && !isEmptyValue(r.values[def.Name]) {
			continue
		}
		source := def.Name
		if norm.fromField != "" {
			source = norm.fromField
		}
		value, err := r.Get(source)
		if err != nil {
			return err
		}
		if err := r.Set(def.Name, norm.fn(value)); err != nil {
			return err
		}
	}
	return nil
}

// Save persists the record through c. A transient record is created and
// hydrated in place from the server response; a persisted record sends
// only its dirty fields, and sends nothing at all when clean.
func (r *Record) Save(ctx context.Context, c Context) error {
	if r.id == "" {
		return c.Create(ctx, r.rt, r)
	}
	if !r.IsDirty() {
		return nil
	}
	if err := c.Update(ctx, r.rt, r); err != nil {
		return err
	}
	r.resetBaseline()
	return nil
}

// Delete removes the record remotely, then clears the identifier and
// creation timestamp and resets every field as if decoded from absence.
// Deleting a transient record is a no-op.
func (r *Record) Delete(ctx context.Context, c Context) error {
	if r.id == "" {
		return nil
	}
	if err := c.Delete(ctx, r.rt, r.id, r.Address()); err != nil {
		return err
	}
	r.id = ""
	r.createdTime = time.Time{}
	return r.resetToAbsent()
}

func (r *Record) String() string {
	return fmt.Sprintf("<%s (%s)>", r.rt.name, r.id)
}
