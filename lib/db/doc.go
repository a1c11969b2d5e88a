// Package db defines the persistence abstraction used by the dictionary store.
//
// A SnapshotDB stores the complete dictionary (word -> ordered list of
// meanings) as a single unit. The store calls Save after every successful
// mutation, so the persisted copy is always a full snapshot of the in-memory
// state rather than a log of changes.
//
// Key Components:
//
//   - SnapshotDB: Interface with Load, Save, GetInfo and Close. Implementations
//     must make Save atomic with respect to Load: a reader never observes a
//     half-written snapshot.
//
//   - Dictionary: The in-memory representation exchanged with the database.
//
//   - ErrCorruptSnapshot: Returned by Load when existing data cannot be decoded.
//     Missing or empty data is not an error and yields an empty Dictionary.
//
// Implementations:
//
//   - jsonfile: Stores the dictionary as one JSON object in a file, replaced
//     atomically through a temporary file and rename.
//     Available in the "github.com/ValentinKolb/dDict/lib/db/engines/jsonfile" package.
//
// Testing:
//
//	The "github.com/ValentinKolb/dDict/lib/db/testing" package contains a
//	conformance suite that every SnapshotDB implementation should pass.
package db
