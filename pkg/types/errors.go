package types

import "errors"

// Record lookup and lifecycle errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrFieldNotFound  = errors.New("field not found")
	ErrReadOnlyField  = errors.New("field is read-only")
	ErrInvalidValue   = errors.New("invalid value")
)

// Addressing errors.
var (
	ErrBaseMismatch  = errors.New("base IDs do not match")
	ErrTableMismatch = errors.New("table IDs do not match")
	ErrBaseUnset     = errors.New("base ID is not set")
	ErrTableUnset    = errors.New("table ID is not set")
)

// Record type registry errors.
var (
	ErrTypeNotRegistered     = errors.New("record type not registered")
	ErrTypeAlreadyRegistered = errors.New("record type already registered")
)

// Record link errors.
var (
	ErrNoFetcher        = errors.New("record link has no fetch strategy")
	ErrUnsavedReference = errors.New("reference to unsaved or deleted record")
)

// ErrUnsupportedOperation is returned by operations a field type cannot
// perform, such as encoding an attachment field.
var ErrUnsupportedOperation = errors.New("unsupported operation")
