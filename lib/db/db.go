package db

import (
	"errors"
	"slices"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplJSONFile Implementation = "jsonfile"
)

// Dictionary is the complete word -> ordered meanings mapping that a
// SnapshotDB reads and writes as one unit.
type Dictionary map[string][]string

// Clone returns a deep copy of the dictionary.
func (d Dictionary) Clone() Dictionary {
	c := make(Dictionary, len(d))
	for word, meanings := range d {
		c[word] = slices.Clone(meanings)
	}
	return c
}

type DatabaseInfo struct {
	SizeBytes int64          `json:"size_bytes"`
	DbType    Implementation `json:"db_type"`
	Path      string         `json:"path"`
	Metadata  interface{}    `json:"metadata"`
}

// ErrCorruptSnapshot is returned by Load when the backing data exists but
// cannot be decoded as a dictionary.
var ErrCorruptSnapshot = errors.New("db: corrupt snapshot")

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// SnapshotDB persists a whole Dictionary at once. Implementations never
// expose partially written state: after Save returns (with or without an
// error) a subsequent Load sees either the previous or the new snapshot.
type SnapshotDB interface {

	// Load reads the last saved snapshot.
	// A missing or empty backing store yields an empty Dictionary and no error.
	Load() (dict Dictionary, err error)

	// Save replaces the stored snapshot with dict.
	Save(dict Dictionary) (err error)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}
