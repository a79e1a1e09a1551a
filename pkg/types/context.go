package types

import "context"

// Context is the fetch/mutate collaborator records and queries operate
// through. internal/rest implements it over HTTP; pkg/cache wraps any
// Context with a caching layer. Callers own the lifecycle of a Context
// and pass it explicitly into every remote operation.
//
// Implementations never retry; all failures propagate to the caller.
type Context interface {
	// FetchSingle retrieves one record by ID from the addressed table.
	// Returns an error wrapping ErrRecordNotFound when the server
	// reports the record missing.
	FetchSingle(ctx context.Context, rt *RecordType, recordID string, addr BaseAndTable) (*Record, error)

	// FetchMany streams every record of the addressed table matching the
	// rendered formula (empty means all), calling yield for each in
	// server order. Pagination is sequential and transparent; a non-nil
	// error from yield stops iteration and is returned.
	FetchMany(ctx context.Context, rt *RecordType, addr BaseAndTable, formula string, yield func(*Record) error) error

	// Create persists a new record and hydrates it in place from the
	// server response, which may carry server-assigned field values.
	Create(ctx context.Context, rt *RecordType, rec *Record) error

	// Update sends the record's dirty fields. Callers skip the call
	// entirely when no field is dirty.
	Update(ctx context.Context, rt *RecordType, rec *Record) error

	// Delete removes the addressed record by ID.
	Delete(ctx context.Context, rt *RecordType, recordID string, addr BaseAndTable) error
}
