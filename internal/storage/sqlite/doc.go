// Package sqlite persists segmentation runs and their per-organ
// measurements in a SQLite database.
//
// The schema lives in migrations/ and is embedded into the binary; Open
// brings a database up to the latest version before returning.
//
// Key types: Store, Run, OrganRecord.
package sqlite
