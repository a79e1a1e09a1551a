package types

import (
	"fmt"
	"sync"
)

// TypeConfig carries the type-level metadata of a record type. A child
// type inherits the unset halves of its parent's configuration; child
// settings win on conflict.
type TypeConfig struct {
	// BaseID and TableID are the default address of records of this type.
	// Either may stay unset and be supplied per query or per record.
	BaseID  string
	TableID string

	// ReadOnly marks every field of the type read-only.
	ReadOnly bool

	// Parent is an optional type to inherit fields and configuration
	// from. Fields declared on the child shadow parent fields with the
	// same name.
	Parent *RecordType
}

// FieldDef binds a field name to its field type for record type
// construction.
type FieldDef struct {
	Name string
	Type FieldType
}

// Def is shorthand for constructing a FieldDef.
func Def(name string, ft FieldType) FieldDef {
	return FieldDef{Name: name, Type: ft}
}

// RecordType is the immutable schema of one record kind: its name, default
// address, and ordered field set. It is built once at registration time;
// all records of the type share it.
type RecordType struct {
	name     string
	addr     BaseAndTable
	readOnly bool
	fields   []FieldDef
	byName   map[string]FieldType
}

// NewRecordType builds a record type from its configuration and declared
// fields. Declaration order is preserved; with a parent configured, child
// fields come first and parent fields not shadowed by name follow in the
// parent's order. Duplicate names within the declared set panic, as does
// an empty field name: both are definition-time mistakes.
func NewRecordType(name string, cfg TypeConfig, fields ...FieldDef) *RecordType {
	rt := &RecordType{
		name:     name,
		addr:     NewBaseAndTable(cfg.BaseID, cfg.TableID),
		readOnly: cfg.ReadOnly,
		byName:   make(map[string]FieldType),
	}
	if cfg.Parent != nil {
		rt.addr = rt.addr.Merge(cfg.Parent.addr)
		rt.readOnly = rt.readOnly || cfg.Parent.readOnly
	}
	for _, def := range fields {
		if def.Name == "" {
			panic(fmt.Sprintf("types: record type %q declares a field with no name", name))
		}
		if _, dup := rt.byName[def.Name]; dup {
			panic(fmt.Sprintf("types: record type %q declares field %q twice", name, def.Name))
		}
		rt.fields = append(rt.fields, def)
		rt.byName[def.Name] = def.Type
	}
	if cfg.Parent != nil {
		for _, def := range cfg.Parent.fields {
			if _, shadowed := rt.byName[def.Name]; shadowed {
				continue
			}
			rt.fields = append(rt.fields, def)
			rt.byName[def.Name] = def.Type
		}
	}
	return rt
}

// Name returns the record type's name.
func (rt *RecordType) Name() string { return rt.name }

// Address returns the type-level default address.
func (rt *RecordType) Address() BaseAndTable { return rt.addr }

// Fields returns the declared fields in declaration order. The returned
// slice must not be modified.
func (rt *RecordType) Fields() []FieldDef { return rt.fields }

// FieldByName returns the field type declared under name.
func (rt *RecordType) FieldByName(name string) (FieldType, bool) {
	ft, ok := rt.byName[name]
	return ft, ok
}

// ColumnNames returns the wire column names of all declared fields in
// declaration order.
func (rt *RecordType) ColumnNames() []string {
	columns := make([]string, 0, len(rt.fields))
	for _, def := range rt.fields {
		columns = append(columns, def.Type.ColumnName())
	}
	return columns
}

// fieldReadOnly reports the effective read-only status of a field,
// honoring the type-level default.
func (rt *RecordType) fieldReadOnly(ft FieldType) bool {
	return rt.readOnly || ft.ReadOnly()
}

// Registry resolves record type names to record types. Link fields use a
// registry to resolve deferred target names, which keeps mutually linked
// types definable in either order.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*RecordType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*RecordType)}
}

// Register adds a record type under its name. Registering a second type
// under the same name returns ErrTypeAlreadyRegistered.
func (r *Registry) Register(rt *RecordType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[rt.name]; exists {
		return fmt.Errorf("%w: %q", ErrTypeAlreadyRegistered, rt.name)
	}
	r.types[rt.name] = rt
	return nil
}

// Lookup returns the record type registered under name.
func (r *Registry) Lookup(name string) (*RecordType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotRegistered, name)
	}
	return rt, nil
}

// DefaultRegistry is the registry deferred link targets resolve against
// unless a field overrides it.
var DefaultRegistry = NewRegistry()

// Register adds a record type to the default registry. It panics on
// duplicate names, which are definition-time mistakes.
func Register(rt *RecordType) *RecordType {
	if err := DefaultRegistry.Register(rt); err != nil {
		panic("types: " + err.Error())
	}
	return rt
}
