// Package history records request/response transactions and resolves the
// descriptors commands use to refer to them.
//
// A Log holds transactions in the order they were made, a cursor pointing at
// the current transaction, and a table of transaction aliases. Transactions
// are numbered from 1 and never change once appended.
//
// # Descriptors
//
// Resolve maps a descriptor to a transaction id. In priority order:
//
//   - "[N]", the form printed by Slug, resolves to N
//   - "latest" resolves to the last transaction
//   - "this" and "current" resolve to the cursor
//   - "prev" and "next" resolve to the cursor minus or plus one
//   - a transaction alias resolves through its target descriptor
//   - a non-negative integer is an absolute id
//   - a negative integer counts back from the latest (-1 is one before latest)
//
// Every failure wraps ErrInvalidDescriptor.
//
// # Package Design
//
// This is a leaf package with no internal dependencies, allowing it to be
// imported by the session, transport and action packages without cycles.
package history
