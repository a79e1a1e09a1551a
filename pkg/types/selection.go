package types

import "fmt"

// Choice declares one legal option of a selection field: the native value
// stored on records and the raw string the wire uses for it.
type Choice struct {
	Value any
	Raw   string
}

// selectionMaps holds the bidirectional raw/value mapping shared by the
// selection field types. Unrecognized raw values pass through unchanged in
// both directions: the server vocabulary may exceed the declared choices.
type selectionMaps struct {
	rawToValue map[string]any
	valueToRaw map[any]string
}

func newSelectionMaps(choices []Choice) selectionMaps {
	m := selectionMaps{
		rawToValue: make(map[string]any, len(choices)),
		valueToRaw: make(map[any]string, len(choices)),
	}
	for _, c := range choices {
		m.rawToValue[c.Raw] = c.Value
		m.valueToRaw[c.Value] = c.Raw
	}
	return m
}

func (m selectionMaps) toValue(raw any) any {
	if s, ok := raw.(string); ok {
		if v, ok := m.rawToValue[s]; ok {
			return v
		}
	}
	return raw
}

func (m selectionMaps) toRaw(value any) any {
	if raw, ok := m.valueToRaw[value]; ok {
		return raw
	}
	return value
}

// SingleSelectionField maps a single-select column through a declared
// choice list.
type SingleSelectionField struct {
	baseField
	selectionMaps
}

// NewSingleSelectionField returns a single-selection field bound to the
// given column. choices may be empty, in which case raw values pass
// through untouched.
func NewSingleSelectionField(column string, choices []Choice, opts ...FieldOption) *SingleSelectionField {
	return &SingleSelectionField{
		baseField:     newBaseField(column, opts...),
		selectionMaps: newSelectionMaps(choices),
	}
}

func (f *SingleSelectionField) Decode(wire any, _ BaseAndTable) (any, error) {
	switch wire.(type) {
	case nil:
		return nil, nil
	case string:
		return f.toValue(wire), nil
	default:
		return nil, fmt.Errorf("%w: selection field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *SingleSelectionField) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return f.toRaw(value), nil
}

func (f *SingleSelectionField) Validate(value any, _ BaseAndTable) (any, error) {
	return value, nil
}

// MultipleSelectionField maps a multi-select column into a ValueSet whose
// validator coerces declared raw values and passes unknown ones through.
type MultipleSelectionField struct {
	baseField
	selectionMaps
}

// NewMultipleSelectionField returns a multiple-selection field bound to
// the given column.
func NewMultipleSelectionField(column string, choices []Choice, opts ...FieldOption) *MultipleSelectionField {
	return &MultipleSelectionField{
		baseField:     newBaseField(column, opts...),
		selectionMaps: newSelectionMaps(choices),
	}
}

func (f *MultipleSelectionField) newValueSet() *ValueSet {
	return NewValueSet(f.toValue)
}

func (f *MultipleSelectionField) Decode(wire any, addr BaseAndTable) (any, error) {
	switch v := wire.(type) {
	case nil:
		return f.newValueSet(), nil
	case []any:
		return f.Validate(v, addr)
	default:
		return nil, fmt.Errorf("%w: multi-selection field %q: unexpected wire value %v", ErrInvalidValue, f.column, wire)
	}
}

func (f *MultipleSelectionField) Encode(value any) (any, error) {
	set, _ := value.(*ValueSet)
	if set == nil || set.Len() == 0 {
		return nil, nil
	}
	raws := make([]any, 0, set.Len())
	for _, v := range set.Values() {
		raws = append(raws, f.toRaw(v))
	}
	return raws, nil
}

func (f *MultipleSelectionField) Validate(value any, _ BaseAndTable) (any, error) {
	set := f.newValueSet()
	switch v := value.(type) {
	case nil:
	case *ValueSet:
		set.SetAll(v.Values())
	case []any:
		set.SetAll(v)
	case []string:
		for _, item := range v {
			set.Add(item)
		}
	default:
		return nil, fmt.Errorf("%w: multi-selection field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
	return set, nil
}

func (f *MultipleSelectionField) CloneValue(value any) any {
	if set, ok := value.(*ValueSet); ok && set != nil {
		return set.Clone()
	}
	return value
}

func (f *MultipleSelectionField) IsSameValue(a, b any) bool {
	sa, aok := a.(*ValueSet)
	sb, bok := b.(*ValueSet)
	if aok && bok && sa != nil {
		return sa.Equal(sb)
	}
	return a == nil && b == nil
}
