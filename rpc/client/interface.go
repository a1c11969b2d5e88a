package client

import (
	"github.com/ValentinKolb/dDict/rpc/common"
)

// IDictionary is the client side view of a remote dictionary.
//
// Each method performs exactly one request/response exchange. The returned
// error is only set for transport and codec failures; domain outcomes such as
// "duplicate" or "word_not_found" are reported through the response status.
type IDictionary interface {
	// Query returns the meanings of word (in resp.Meanings on success)
	Query(word string) (resp *common.Response, err error)
	// Add inserts a new word with its meanings
	Add(word string, meanings []string) (resp *common.Response, err error)
	// Remove deletes a word
	Remove(word string) (resp *common.Response, err error)
	// AddMeaning appends a meaning to an existing word
	AddMeaning(word, newMeaning string) (resp *common.Response, err error)
	// UpdateMeaning replaces oldMeaning with newMeaning
	UpdateMeaning(word, oldMeaning, newMeaning string) (resp *common.Response, err error)
	// Close releases all connections
	Close() error
}
