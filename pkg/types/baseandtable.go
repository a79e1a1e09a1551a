package types

import (
	"fmt"
	"net/url"
)

// DefaultAPIRoot is the root URL of the remote API.
const DefaultAPIRoot = "https://api.airtable.com/v0"

// BaseAndTable identifies the remote collection a record, query, or link
// targets. Either half may be unset; unset halves are filled in from
// type-level or per-instance defaults when addresses are merged.
type BaseAndTable struct {
	baseID  string
	tableID string
}

// NewBaseAndTable returns an address with the given base and table IDs.
func NewBaseAndTable(baseID, tableID string) BaseAndTable {
	return BaseAndTable{baseID: baseID, tableID: tableID}
}

// BaseID returns the base ID, or the empty string when unset.
func (bt BaseAndTable) BaseID() string { return bt.baseID }

// TableID returns the table ID, or the empty string when unset.
func (bt BaseAndTable) TableID() string { return bt.tableID }

// WithBaseID returns a copy of the address with the base ID replaced.
func (bt BaseAndTable) WithBaseID(baseID string) BaseAndTable {
	bt.baseID = baseID
	return bt
}

// WithTableID returns a copy of the address with the table ID replaced.
func (bt BaseAndTable) WithTableID(tableID string) BaseAndTable {
	bt.tableID = tableID
	return bt
}

// Merge returns a copy of the address with unset halves filled in from other.
func (bt BaseAndTable) Merge(other BaseAndTable) BaseAndTable {
	if bt.baseID == "" {
		bt.baseID = other.baseID
	}
	if bt.tableID == "" {
		bt.tableID = other.tableID
	}
	return bt
}

// EnsureMatch reports an error when both addresses set the same half to
// different values. Unset halves match anything.
func (bt BaseAndTable) EnsureMatch(other BaseAndTable) error {
	if bt.baseID != "" && other.baseID != "" && bt.baseID != other.baseID {
		return fmt.Errorf("%w: %q vs %q", ErrBaseMismatch, bt.baseID, other.baseID)
	}
	if bt.tableID != "" && other.tableID != "" && bt.tableID != other.tableID {
		return fmt.Errorf("%w: %q vs %q", ErrTableMismatch, bt.tableID, other.tableID)
	}
	return nil
}

// Validate reports an error when either half of the address is unset.
func (bt BaseAndTable) Validate() error {
	if bt.baseID == "" {
		return ErrBaseUnset
	}
	if bt.tableID == "" {
		return ErrTableUnset
	}
	return nil
}

// URL builds the request URL for the addressed table under root, appending
// recordID when non-empty. The table ID is percent-encoded; base and record
// IDs are opaque server tokens and used verbatim.
func (bt BaseAndTable) URL(root, recordID string) (string, error) {
	if err := bt.Validate(); err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/%s/%s", root, bt.baseID, url.PathEscape(bt.tableID))
	if recordID != "" {
		u += "/" + recordID
	}
	return u, nil
}

func (bt BaseAndTable) String() string {
	return fmt.Sprintf("BaseAndTable(base=%q, table=%q)", bt.baseID, bt.tableID)
}
