// Package query provides deferred, composable selectors over one record
// type. A query must be explicitly scoped with All, Filter, or None before
// it can be iterated; None short-circuits permanently to zero results
// without any remote call.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/airbase/pkg/filter"
	"github.com/mesh-intelligence/airbase/pkg/types"
)

// Query errors.
var (
	// ErrUnscoped is returned when iterating a query that has had no
	// scoping call. Scoping is explicit: All, Filter, or None.
	ErrUnscoped = errors.New("query is not scoped")

	// ErrFilteredGet is returned by Get on a filtered query: Get is a
	// direct point lookup, not filter-plus-limit.
	ErrFilteredGet = errors.New("Get is incompatible with a filtered query")
)

// Query is a deferred selector over one record type. The zero value is
// unusable; construct with New. Queries have value semantics: every
// scoping call returns a derived query, leaving the receiver untouched.
type Query struct {
	rt     *types.RecordType
	addr   types.BaseAndTable
	flt    filter.Filter
	scoped bool
	empty  bool
}

// New returns an unscoped query over rt at the type's default address.
func New(rt *types.RecordType) Query {
	return Query{rt: rt, addr: rt.Address()}
}

// WithBaseID returns a copy of the query with the base ID overridden.
func (q Query) WithBaseID(baseID string) Query {
	q.addr = q.addr.WithBaseID(baseID)
	return q
}

// WithTableID returns a copy of the query with the table ID overridden.
func (q Query) WithTableID(tableID string) Query {
	q.addr = q.addr.WithTableID(tableID)
	return q
}

// All scopes the query to every record of the table.
func (q Query) All() Query {
	q.scoped = true
	return q
}

// Filter scopes the query and narrows it with the given filters, merging
// them conjunctively into any filter already applied.
func (q Query) Filter(filters ...filter.Filter) Query {
	q.scoped = true
	if q.flt == nil {
		q.flt = filter.And(filters...)
	} else {
		q.flt = filter.And(append([]filter.Filter{q.flt}, filters...)...)
	}
	return q
}

// None scopes the query to zero results. Iterating and point lookups on
// the result perform no remote calls; further Filter calls cannot widen
// it again.
func (q Query) None() Query {
	q.scoped = true
	q.empty = true
	return q
}

// schema adapts the record type to the filter package's column lookup.
type schema struct {
	rt *types.RecordType
}

func (s schema) Column(fieldName string) (filter.Column, error) {
	ft, ok := s.rt.FieldByName(fieldName)
	if !ok {
		return filter.Column{}, fmt.Errorf("%w: %s.%s", filter.ErrUnknownField, s.rt.Name(), fieldName)
	}
	_, boolean := ft.(*types.BooleanField)
	return filter.Column{Name: ft.ColumnName(), Boolean: boolean}, nil
}

// Formula renders the query's filter in the server's formula language; an
// empty result means unconstrained.
func (q Query) Formula() (string, error) {
	if q.flt == nil {
		return "", nil
	}
	return q.flt.Formula(schema{rt: q.rt})
}

// Each streams matching records through fn in server order. A non-nil
// error from fn stops iteration and is returned.
func (q Query) Each(ctx context.Context, c types.Context, fn func(*types.Record) error) error {
	if !q.scoped {
		return ErrUnscoped
	}
	if q.empty {
		return nil
	}
	formula, err := q.Formula()
	if err != nil {
		return err
	}
	return c.FetchMany(ctx, q.rt, q.addr, formula, fn)
}

// Records collects every matching record.
func (q Query) Records(ctx context.Context, c types.Context) ([]*types.Record, error) {
	var records []*types.Record
	err := q.Each(ctx, c, func(rec *types.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get fetches one record by ID. It is a point lookup: calling it on a
// filtered query is an error, and on an empty query it reports not-found
// without a remote call.
func (q Query) Get(ctx context.Context, c types.Context, recordID string) (*types.Record, error) {
	if q.flt != nil {
		return nil, ErrFilteredGet
	}
	if q.empty {
		return nil, fmt.Errorf("%w: %q", types.ErrRecordNotFound, recordID)
	}
	return c.FetchSingle(ctx, q.rt, recordID, q.addr)
}
