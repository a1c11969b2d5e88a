// Package store provides the high-level interface of the dictionary: a mapping
// from a word to an ordered list of unique meanings, with atomic query, add,
// remove, add-meaning and update-meaning operations.
//
// The package focuses on:
//   - A single interface (IStore) that the RPC layer dispatches to
//   - Typed outcomes (RetCode) instead of errors for domain results such as
//     duplicate words or missing meanings
//   - Pluggable persistence through the DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction. Reads return data, writes return a
//     RetCode. Writes accept a context and a delay: the delay keeps the write lock
//     held after persisting, which makes the serialization of concurrent writes
//     observable from the outside. The context only shortens the delay.
//
//   - RetCode: The outcome of a write. String() yields the upper case name
//     ("MEANING_EXISTS"), Code() the lower case status used on the wire
//     ("meaning_exists").
//
//   - DBFactory: A function type that abstracts the creation of the underlying
//     db.SnapshotDB, so tests can inject in-memory or failing databases.
//
// Implementations:
//
//   - Local Store (lstore): Guards one map with a sync.RWMutex and writes a full
//     snapshot after every successful mutation.
//     Available in the "github.com/ValentinKolb/dDict/lib/store/lstore" package.
package store
