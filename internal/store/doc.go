// Package store persists analysis runs and per-video metrics in SQLite.
//
// Each analyze invocation is one run; every video it touched becomes one
// video_metrics row, including failed videos with their error message. The
// schema is embedded and versioned; a version mismatch is reported as
// ErrSchemaMismatch rather than migrated.
package store
