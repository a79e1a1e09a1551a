package types

import (
	"fmt"
	"sort"
)

// ValueSet is a mutable set whose elements pass through a validator on
// every insertion, removal, and membership test. The default validator is
// the identity function. Multiple-selection fields use a choice-coercing
// validator that silently passes through unrecognized values, since the
// server-side vocabulary may exceed the declared choices.
type ValueSet struct {
	items     map[any]struct{}
	validator func(any) any
}

// NewValueSet returns an empty set using the given validator. A nil
// validator means identity.
func NewValueSet(validator func(any) any) *ValueSet {
	if validator == nil {
		validator = func(v any) any { return v }
	}
	return &ValueSet{
		items:     make(map[any]struct{}),
		validator: validator,
	}
}

// Clone returns an independent copy sharing the validator.
func (s *ValueSet) Clone() *ValueSet {
	c := &ValueSet{
		items:     make(map[any]struct{}, len(s.items)),
		validator: s.validator,
	}
	for v := range s.items {
		c.items[v] = struct{}{}
	}
	return c
}

// Add inserts the validated value.
func (s *ValueSet) Add(v any) {
	s.items[s.validator(v)] = struct{}{}
}

// Discard removes the validated value if present.
func (s *ValueSet) Discard(v any) {
	delete(s.items, s.validator(v))
}

// Contains reports whether the validated value is present.
func (s *ValueSet) Contains(v any) bool {
	_, ok := s.items[s.validator(v)]
	return ok
}

// SetAll replaces the contents with the given values.
func (s *ValueSet) SetAll(values []any) {
	s.items = make(map[any]struct{}, len(values))
	for _, v := range values {
		s.items[s.validator(v)] = struct{}{}
	}
}

// Len returns the number of elements.
func (s *ValueSet) Len() int { return len(s.items) }

// Values returns the elements in a deterministic order, sorted by their
// string rendering.
func (s *ValueSet) Values() []any {
	values := make([]any, 0, len(s.items))
	for v := range s.items {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		return fmt.Sprint(values[i]) < fmt.Sprint(values[j])
	})
	return values
}

// Equal reports whether both sets hold the same elements.
func (s *ValueSet) Equal(other *ValueSet) bool {
	if other == nil || len(s.items) != len(other.items) {
		return false
	}
	for v := range s.items {
		if _, ok := other.items[v]; !ok {
			return false
		}
	}
	return true
}

func (s *ValueSet) String() string {
	return fmt.Sprint(s.Values())
}
