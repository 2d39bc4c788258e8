// Package store persists submitted reports as timestamped text files.
//
// This package is internal to reportcast. Each saved report becomes one
// durable file in the configured reports directory, named from the save
// time with second resolution. Reports are immutable once written and are
// never deleted by this package; retention is the operator's concern.
//
// The main components are:
//
//   - [Store]: interface for saving and enumerating reports
//   - [FileStore]: filesystem implementation of Store
//   - [Report]: one persisted report record
package store
