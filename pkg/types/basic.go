package types

import (
	"fmt"
	"math"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// The wire emits datetimes with a literal Z suffix and fractional
	// seconds. Decoding is lenient (RFC 3339); encoding always uses six
	// fractional digits in UTC.
	datetimeEncodeLayout = "2006-01-02T15:04:05.000000Z"
)

// parseWireTimestamp decodes a wire datetime string into a UTC time.
func parseWireTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrInvalidValue, s, err)
	}
	return t.UTC(), nil
}

// isNaNSentinel reports whether a wire value is the server's special
// not-a-number marker object, {"specialValue": "NaN"}.
func isNaNSentinel(wire any) bool {
	m, ok := wire.(map[string]any)
	return ok && m["specialValue"] == "NaN"
}

// StringField maps a text column. Nil and empty wire values decode to "";
// empty strings encode to nil so the wire omits empty fields.
type StringField struct {
	baseField
}

// NewStringField returns a string field bound to the given column.
func NewStringField(column string, opts ...FieldOption) *StringField {
	return &StringField{baseField: newBaseField(column, opts...)}
}

func (f *StringField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: string field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *StringField) Encode(value any) (any, error) {
	if s, _ := value.(string); s != "" {
		return s, nil
	}
	return nil, nil
}

func (f *StringField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: string field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

// IntegerField maps an integer column. The stored value is int64, or nil
// when absent. The wire's NaN sentinel object decodes to nil; any other
// non-numeric shape is a decode error.
type IntegerField struct {
	baseField
}

// NewIntegerField returns an integer field bound to the given column.
func NewIntegerField(column string, opts ...FieldOption) *IntegerField {
	return &IntegerField{baseField: newBaseField(column, opts...)}
}

func (f *IntegerField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		if isNaNSentinel(wire) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: integer field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *IntegerField) Encode(value any) (any, error) {
	return value, nil
}

func (f *IntegerField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: integer field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

// FloatField maps a floating-point column. The stored value is float64, or
// nil when absent. The wire's NaN sentinel decodes to NaN.
type FloatField struct {
	baseField
}

// NewFloatField returns a float field bound to the given column.
func NewFloatField(column string, opts ...FieldOption) *FloatField {
	return &FloatField{baseField: newBaseField(column, opts...)}
}

func (f *FloatField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		if isNaNSentinel(wire) {
			return math.NaN(), nil
		}
		return nil, fmt.Errorf("%w: float field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *FloatField) Encode(value any) (any, error) {
	return value, nil
}

func (f *FloatField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: float field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

// IsSameValue treats two NaN values as equal so a NaN-valued field does not
// read as perpetually dirty.
func (f *FloatField) IsSameValue(a, b any) bool {
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok && math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return a == b
}

// BooleanField maps a checkbox column. Decoding coerces by truthiness;
// encoding emits true or omits the field, matching the wire convention
// that boolean columns are present only when set.
type BooleanField struct {
	baseField
}

// NewBooleanField returns a boolean field bound to the given column.
func NewBooleanField(column string, opts ...FieldOption) *BooleanField {
	return &BooleanField{baseField: newBaseField(column, opts...)}
}

func (f *BooleanField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		return v != "", nil
	case []any:
		return len(v) > 0, nil
	default:
		return nil, fmt.Errorf("%w: boolean field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *BooleanField) Encode(value any) (any, error) {
	if b, _ := value.(bool); b {
		return true, nil
	}
	return nil, nil
}

func (f *BooleanField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: boolean field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

// DateField maps a date-only column using the YYYY-MM-DD wire format. The
// stored value is a time.Time at UTC midnight, or nil when absent.
type DateField struct {
	baseField
}

// NewDateField returns a date field bound to the given column.
func NewDateField(column string, opts ...FieldOption) *DateField {
	return &DateField{baseField: newBaseField(column, opts...)}
}

func (f *DateField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation(dateLayout, v, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: date field %q: %v", ErrInvalidValue, f.column, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: date field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *DateField) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return value.(time.Time).Format(dateLayout), nil
}

func (f *DateField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		y, m, d := v.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	default:
		return nil, fmt.Errorf("%w: date field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

func (f *DateField) IsSameValue(a, b any) bool {
	return sameTimeValue(a, b)
}

// DateTimeField maps a timestamp column. Decoding accepts RFC 3339 wire
// values and stores them in UTC; encoding converts to UTC and renders six
// fractional digits with a literal Z suffix.
type DateTimeField struct {
	baseField
}

// NewDateTimeField returns a datetime field bound to the given column.
func NewDateTimeField(column string, opts ...FieldOption) *DateTimeField {
	return &DateTimeField{baseField: newBaseField(column, opts...)}
}

func (f *DateTimeField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := parseWireTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("datetime field %q: %w", f.column, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: datetime field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *DateTimeField) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return value.(time.Time).UTC().Format(datetimeEncodeLayout), nil
}

func (f *DateTimeField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: datetime field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

func (f *DateTimeField) IsSameValue(a, b any) bool {
	return sameTimeValue(a, b)
}

func sameTimeValue(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}
	return a == nil && b == nil
}
