package types

// FieldType describes one typed column projection: how wire values decode
// into native values, how native values encode back to wire form, how
// candidate values are validated on assignment, and how stored values are
// cloned and compared for dirty-field tracking.
//
// A FieldType instance is shared by every record of its record type and
// holds no per-record state; per-record values live in the Record.
type FieldType interface {
	// ColumnName returns the wire column name.
	ColumnName() string

	// ReadOnly reports whether the field rejects writes once its record
	// has a server-assigned ID. Read-only fields are never encoded.
	ReadOnly() bool

	// Decode converts a wire value into the native value. A nil wire
	// value decodes into the field's value-from-absence. addr is the
	// address of the record being hydrated, used by link fields to bind
	// fetch strategies.
	Decode(wire any, addr BaseAndTable) (any, error)

	// Encode converts a native value into wire form. Encoding may return
	// nil to omit the field from the payload.
	Encode(value any) (any, error)

	// Validate checks and coerces a candidate value before storage,
	// returning an ErrInvalidValue-wrapped error on rejection.
	Validate(value any, addr BaseAndTable) (any, error)

	// CloneValue returns an independent copy of a stored value, used to
	// snapshot the dirty-tracking baseline.
	CloneValue(value any) any

	// IsSameValue reports whether two stored values are equal for the
	// purpose of dirty-field computation.
	IsSameValue(a, b any) bool
}

// normalization carries the optional normalization hook of a field.
type normalization struct {
	fn           func(any) any
	fromField    string
	skipIfFilled bool
}

// normalizable is implemented by all field types through baseField and
// consulted by Record.NormalizeFields.
type normalizable interface {
	normalization() normalization
}

// baseField holds the metadata common to every field type. It is embedded
// by the concrete field types, which add decode/encode behavior.
type baseField struct {
	column     string
	readOnly   bool
	defaultVal any
	norm       normalization
}

// FieldOption configures common field metadata at definition time.
type FieldOption func(*baseField)

// ReadOnly marks the field read-only: it is excluded from dirty diffs and
// encoding, and rejects assignment once the record has a server ID.
func ReadOnly() FieldOption {
	return func(b *baseField) { b.readOnly = true }
}

// WithDefault sets the value assigned to the field on record construction.
// Combining a default with ReadOnly panics at definition time.
func WithDefault(v any) FieldOption {
	return func(b *baseField) { b.defaultVal = v }
}

// WithNormalize installs a normalization function applied by
// Record.NormalizeFields.
func WithNormalize(fn func(any) any) FieldOption {
	return func(b *baseField) { b.norm.fn = fn }
}

// NormalizeFrom names another field whose value feeds the normalization
// function instead of this field's own value.
func NormalizeFrom(fieldName string) FieldOption {
	return func(b *baseField) { b.norm.fromField = fieldName }
}

// SkipNormalizationIfFilled skips normalization when the field already
// holds a non-empty value.
func SkipNormalizationIfFilled() FieldOption {
	return func(b *baseField) { b.norm.skipIfFilled = true }
}

func newBaseField(column string, opts ...FieldOption) baseField {
	b := baseField{column: column}
	for _, opt := range opts {
		opt(&b)
	}
	if b.readOnly && b.defaultVal != nil {
		panic("types: cannot set a default value for a read-only field")
	}
	return b
}

func (b baseField) ColumnName() string { return b.column }

func (b baseField) ReadOnly() bool { return b.readOnly }

func (b baseField) CloneValue(value any) any { return value }

// IsSameValue compares by plain equality. Field types whose values are not
// comparable with == override this.
func (b baseField) IsSameValue(a, c any) bool { return a == c }

func (b baseField) normalization() normalization { return b.norm }

func (b baseField) defaultValue() any { return b.defaultVal }

// defaulter exposes the definition-time default of a field.
type defaulter interface {
	defaultValue() any
}

// isEmptyValue reports whether a stored value counts as unfilled for
// SkipNormalizationIfFilled purposes.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int64:
		return t == 0
	case float64:
		return t == 0
	case *ValueSet:
		return t == nil || t.Len() == 0
	case *RecordLink:
		return t == nil
	case *RecordLinkCollection:
		return t == nil || t.Len() == 0
	default:
		return false
	}
}
