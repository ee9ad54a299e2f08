// Package store owns the authoritative in-memory table of documents,
// keyed by full resource name. It provides create, read, field-level
// merge, delete and parent-scoped listing, stamps creation and update
// timestamps, and derives the set of child collections under a parent
// by scanning document names (collections have no storage of their
// own).
//
// The table is volatile and process-lifetime-only. A single RWMutex
// guards it: reads observe consistent per-document snapshots, and all
// writes to a given name resolve in one total order, so a create
// racing a create at the same explicit name yields exactly one
// ErrAlreadyExists, and a merge racing a delete either completes
// before the delete or fails with ErrNotFound.
package store
