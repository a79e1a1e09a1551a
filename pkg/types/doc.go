// Package types defines the core object model of the airbase client:
// base/table addressing, typed field descriptors with decode/encode/validate
// behavior, records with dirty-field tracking, lazy record links, and the
// Context interface that remote backends implement.
package types
