// Package filter builds server-side boolean formulas from declarative
// constraints. Filters form a tree of typed leaf predicates combined by
// AND/OR/NOT nodes; same-kind nodes flatten at construction and constant
// true/false children short-circuit at render time.
package filter

import (
	"errors"
	"fmt"
)

// Filter errors.
var (
	ErrUnknownField = errors.New("unknown filter field")
	ErrBadLiteral   = errors.New("cannot render literal value")
)

// Column is the schema metadata a filter needs about one field: its wire
// column name and whether it is a boolean column. Boolean columns do not
// support the = comparator in the formula language; equality on them
// renders as a bare or negated column reference.
type Column struct {
	Name    string
	Boolean bool
}

// Schema resolves field names to columns. Queries adapt their record type
// into a Schema when rendering.
type Schema interface {
	Column(fieldName string) (Column, error)
}

// Filter is one node of a predicate tree.
type Filter interface {
	// Formula renders the node in the server's formula language. An
	// empty result means "no constraint" and is dropped by enclosing
	// combinators.
	Formula(s Schema) (string, error)
}

type trueFilter struct{}

func (trueFilter) Formula(Schema) (string, error) { return "TRUE()", nil }

type falseFilter struct{}

func (falseFilter) Formula(Schema) (string, error) { return "FALSE()", nil }

// True returns the constant-true filter.
func True() Filter { return trueFilter{} }

// False returns the constant-false filter.
func False() Filter { return falseFilter{} }

type notFilter struct {
	inner Filter
}

// Not negates a filter. Double negation cancels at construction.
func Not(f Filter) Filter {
	if n, ok := f.(notFilter); ok {
		return n.inner
	}
	return notFilter{inner: f}
}

func (f notFilter) Formula(s Schema) (string, error) {
	switch f.inner.(type) {
	case trueFilter:
		return falseFilter{}.Formula(s)
	case falseFilter:
		return trueFilter{}.Formula(s)
	}
	inner, err := f.inner.Formula(s)
	if err != nil {
		return "", err
	}
	if inner == "" {
		return "FALSE()", nil
	}
	return fmt.Sprintf("NOT(%s)", inner), nil
}

type andFilter struct {
	children []Filter
}

type orFilter struct {
	children []Filter
}

// And combines filters conjunctively. Nested ANDs flatten into one node.
func And(filters ...Filter) Filter {
	flat := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if a, ok := f.(andFilter); ok {
			flat = append(flat, a.children...)
			continue
		}
		flat = append(flat, f)
	}
	return andFilter{children: flat}
}

// Or combines filters disjunctively. Nested ORs flatten into one node.
func Or(filters ...Filter) Filter {
	flat := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if o, ok := f.(orFilter); ok {
			flat = append(flat, o.children...)
			continue
		}
		flat = append(flat, f)
	}
	return orFilter{children: flat}
}

func (f andFilter) Formula(s Schema) (string, error) {
	for _, child := range f.children {
		if _, ok := child.(falseFilter); ok {
			return falseFilter{}.Formula(s)
		}
	}
	return renderVariadic(s, "AND", f.children)
}

func (f orFilter) Formula(s Schema) (string, error) {
	for _, child := range f.children {
		if _, ok := child.(trueFilter); ok {
			return trueFilter{}.Formula(s)
		}
	}
	return renderVariadic(s, "OR", f.children)
}

// renderVariadic renders an N-ary combinator, dropping empty child
// formulas. Zero children render as the empty (unconstrained) formula and
// a single child renders bare.
func renderVariadic(s Schema, op string, children []Filter) (string, error) {
	rendered := make([]string, 0, len(children))
	for _, child := range children {
		formula, err := child.Formula(s)
		if err != nil {
			return "", err
		}
		if formula == "" {
			continue
		}
		rendered = append(rendered, formula)
	}
	switch len(rendered) {
	case 0:
		return "", nil
	case 1:
		return rendered[0], nil
	}
	return fmt.Sprintf("%s(%s)", op, joinComma(rendered)), nil
}

// comparison is the shared shape of the binary comparison leaves.
type comparison struct {
	field    string
	operator string
	value    any
}

func (f comparison) Formula(s Schema) (string, error) {
	column, err := s.Column(f.field)
	if err != nil {
		return "", err
	}
	literal, err := quoteValue(f.value)
	if err != nil {
		return "", err
	}
	return quoteColumnName(column.Name) + f.operator + literal, nil
}

type equals struct {
	field string
	value any
}

func (f equals) Formula(s Schema) (string, error) {
	column, err := s.Column(f.field)
	if err != nil {
		return "", err
	}
	if column.Boolean {
		if b, _ := f.value.(bool); b {
			return fmt.Sprintf("(%s)", quoteColumnName(column.Name)), nil
		}
		return fmt.Sprintf("NOT(%s)", quoteColumnName(column.Name)), nil
	}
	literal, err := quoteValue(f.value)
	if err != nil {
		return "", err
	}
	return quoteColumnName(column.Name) + "=" + literal, nil
}

// Eq matches records whose field equals value. On boolean columns it
// renders as a bare (or negated) column reference.
func Eq(field string, value any) Filter { return equals{field: field, value: value} }

// NotEq matches records whose field differs from value.
func NotEq(field string, value any) Filter {
	return comparison{field: field, operator: "!=", value: value}
}

// Gt matches records whose field exceeds value.
func Gt(field string, value any) Filter {
	return comparison{field: field, operator: ">", value: value}
}

// Lt matches records whose field is below value.
func Lt(field string, value any) Filter {
	return comparison{field: field, operator: "<", value: value}
}

// Gte matches records whose field is at least value.
func Gte(field string, value any) Filter {
	return comparison{field: field, operator: ">=", value: value}
}

// Lte matches records whose field is at most value.
func Lte(field string, value any) Filter {
	return comparison{field: field, operator: "<=", value: value}
}

type emptiness struct {
	field string
	empty bool
}

func (f emptiness) Formula(s Schema) (string, error) {
	column, err := s.Column(f.field)
	if err != nil {
		return "", err
	}
	if f.empty {
		return fmt.Sprintf("NOT(%s)", quoteColumnName(column.Name)), nil
	}
	return quoteColumnName(column.Name) + `!=""`, nil
}

// Empty matches records whose field holds no value.
func Empty(field string) Filter { return emptiness{field: field, empty: true} }

// NotEmpty matches records whose field holds a value.
func NotEmpty(field string) Filter { return emptiness{field: field, empty: false} }

type membership struct {
	field    string
	value    any
	contains bool
}

func (f membership) Formula(s Schema) (string, error) {
	column, err := s.Column(f.field)
	if err != nil {
		return "", err
	}
	literal, err := quoteValue(f.value)
	if err != nil {
		return "", err
	}
	// Multi-select columns render as a comma-joined list; membership is a
	// delimiter-padded substring search over that rendering.
	comparator := ">0"
	if !f.contains {
		comparator = "=0"
	}
	return fmt.Sprintf(`FIND(", "&%s&", ",", "&%s&", ")%s`,
		literal, quoteColumnName(column.Name), comparator), nil
}

// Contains matches records whose multi-select field includes value.
func Contains(field string, value any) Filter {
	return membership{field: field, value: value, contains: true}
}

// Excludes matches records whose multi-select field does not include value.
func Excludes(field string, value any) Filter {
	return membership{field: field, value: value, contains: false}
}
