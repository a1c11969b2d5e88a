package store

import (
	"context"
	"strings"
	"time"

	"github.com/ValentinKolb/dDict/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.SnapshotDB

// IStore is the interface for interacting with a word -> meanings dictionary.
// Read operations return the requested data directly, write operations return
// a RetCode describing the outcome.
//
// All methods expect non-empty, trimmed strings; validation is the caller's job.
// Every write that returns RetCSuccess has been persisted (or the persist failure
// has been logged) before the method returns. A positive delay keeps the write
// lock held for that long after persisting, ctx cancellation cuts the delay short.
type IStore interface {
	// Query returns a copy of the meanings of word. The boolean indicates whether the word exists.
	Query(word string) (meanings []string, found bool)
	// Add inserts a new word. Returns RetCDuplicate if the word already exists.
	Add(ctx context.Context, word string, meanings []string, delay time.Duration) RetCode
	// Remove deletes a word. Returns RetCNotFound if the word does not exist.
	Remove(ctx context.Context, word string, delay time.Duration) RetCode
	// AddMeaning appends a meaning to an existing word.
	// Returns RetCWordNotFound or RetCMeaningExists.
	AddMeaning(ctx context.Context, word, newMeaning string, delay time.Duration) RetCode
	// UpdateMeaning replaces oldMeaning with newMeaning, keeping its position.
	// Returns RetCWordNotFound, RetCMeaningNotFound or RetCMeaningExists, checked in that order.
	UpdateMeaning(ctx context.Context, word, oldMeaning, newMeaning string, delay time.Duration) RetCode
	// Size returns the number of words in the dictionary.
	Size() int
	// GetDBInfo returns metadata about the store and the database underlying it.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo)
	// Close closes the underlying database. The store must not be used afterwards.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint8

const (
	RetCSuccess         RetCode = iota // 0: Operation executed successfully.
	RetCDuplicate                      // 1: Word already exists (Add).
	RetCNotFound                       // 2: Word does not exist (Remove).
	RetCWordNotFound                   // 3: Word does not exist (AddMeaning, UpdateMeaning).
	RetCMeaningNotFound                // 4: Meaning to replace does not exist (UpdateMeaning).
	RetCMeaningExists                  // 5: Meaning is already present (AddMeaning, UpdateMeaning).
)

// String returns the upper case name of the code, e.g. "WORD_NOT_FOUND"
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "SUCCESS"
	case RetCDuplicate:
		return "DUPLICATE"
	case RetCNotFound:
		return "NOT_FOUND"
	case RetCWordNotFound:
		return "WORD_NOT_FOUND"
	case RetCMeaningNotFound:
		return "MEANING_NOT_FOUND"
	case RetCMeaningExists:
		return "MEANING_EXISTS"
	default:
		return "UNKNOWN"
	}
}

// Code returns the status as sent over the wire, e.g. "word_not_found"
func (c RetCode) Code() string {
	return strings.ToLower(c.String())
}

// --------------------------------------------------------------------------
// Store Statistics
// --------------------------------------------------------------------------

// Stats is placed in db.DatabaseInfo.Metadata by store implementations
type Stats struct {
	Words           int         `json:"words"`
	LastPersist     time.Time   `json:"last_persist,omitempty"`
	PersistFailures uint64      `json:"persist_failures"`
	Engine          interface{} `json:"engine,omitempty"`
}
