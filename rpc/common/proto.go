package common

import (
	"encoding/json"
)

// --------------------------------------------------------------------------
// Message Structures
// --------------------------------------------------------------------------

// Request is one line sent from a client to the server.
// Which fields are used depends on the command.
type Request struct {
	// Command to execute
	Command CommandType `json:"command"`

	Word       string   `json:"word"`                 // Used for: all commands
	Meanings   []string `json:"meanings,omitempty"`   // Used for: add
	OldMeaning string   `json:"oldMeaning,omitempty"` // Used for: updateMeaning
	NewMeaning string   `json:"newMeaning,omitempty"` // Used for: addMeaning, updateMeaning
	Delay      int64    `json:"delay,omitempty"`      // Used for: add, remove, addMeaning, updateMeaning (in ms)
}

// Response is one line sent from the server to a client.
type Response struct {
	// "success", "error" or the lower case store return code (e.g. "duplicate")
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Meanings []string `json:"meanings,omitempty"` // Only set on a successful query
}

// OK returns whether the response reports success
func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MsgMalformedRequest = "Malformed JSON request received."
	MsgUnknownCommand   = "Unknown command"
)

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewQueryRequest creates a new query request
func NewQueryRequest(word string) *Request {
	return &Request{
		Command: CmdQuery,
		Word:    word,
	}
}

// NewAddRequest creates a new add request
func NewAddRequest(word string, meanings []string, delayMs int64) *Request {
	return &Request{
		Command:  CmdAdd,
		Word:     word,
		Meanings: meanings,
		Delay:    delayMs,
	}
}

// NewRemoveRequest creates a new remove request
func NewRemoveRequest(word string, delayMs int64) *Request {
	return &Request{
		Command: CmdRemove,
		Word:    word,
		Delay:   delayMs,
	}
}

// NewAddMeaningRequest creates a new addMeaning request
func NewAddMeaningRequest(word, newMeaning string, delayMs int64) *Request {
	return &Request{
		Command:    CmdAddMeaning,
		Word:       word,
		NewMeaning: newMeaning,
		Delay:      delayMs,
	}
}

// NewUpdateMeaningRequest creates a new updateMeaning request
func NewUpdateMeaningRequest(word, oldMeaning, newMeaning string, delayMs int64) *Request {
	return &Request{
		Command:    CmdUpdateMeaning,
		Word:       word,
		OldMeaning: oldMeaning,
		NewMeaning: newMeaning,
		Delay:      delayMs,
	}
}

// NewQueryResponse creates a successful query response
func NewQueryResponse(meanings []string) *Response {
	return &Response{
		Status:   StatusSuccess,
		Meanings: meanings,
	}
}

// NewStatusResponse creates a response with the given status and message
func NewStatusResponse(status, message string) *Response {
	return &Response{
		Status:  status,
		Message: message,
	}
}

// NewErrorResponse creates a generic error response
func NewErrorResponse(message string) *Response {
	return NewStatusResponse(StatusError, message)
}

// --------------------------------------------------------------------------
// Command Type
// --------------------------------------------------------------------------

// CommandType defines the operation requested by a client.
type CommandType uint8

// String returns the wire representation of a CommandType.
func (t CommandType) String() string {
	switch t {
	case CmdQuery:
		return "query"
	case CmdAdd:
		return "add"
	case CmdRemove:
		return "remove"
	case CmdAddMeaning:
		return "addMeaning"
	case CmdUpdateMeaning:
		return "updateMeaning"
	default:
		return "unknown"
	}
}

// ParseCommandType converts the wire representation back to a CommandType.
// Unrecognised names map to CmdUnknown.
func ParseCommandType(s string) CommandType {
	switch s {
	case "query":
		return CmdQuery
	case "add":
		return CmdAdd
	case "remove":
		return CmdRemove
	case "addMeaning":
		return CmdAddMeaning
	case "updateMeaning":
		return CmdUpdateMeaning
	default:
		return CmdUnknown
	}
}

// MarshalJSON implements the json.Marshaller interface for CommandType.
// This allows CommandType to be serialized as a string in JSON.
func (t CommandType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for CommandType.
// Unknown command names are not an error, they decode to CmdUnknown so the
// server can answer with a dedicated message.
func (t *CommandType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseCommandType(s)
	return nil
}

// --------------------------------------------------------------------------
// Command Type Constants
// --------------------------------------------------------------------------

const (
	CmdUnknown       CommandType = iota
	CmdQuery                     // Look up the meanings of a word
	CmdAdd                       // Add a new word with its meanings
	CmdRemove                    // Remove a word
	CmdAddMeaning                // Append a meaning to a word
	CmdUpdateMeaning             // Replace one meaning of a word
)

// IsMutation returns whether the command changes the dictionary
func (t CommandType) IsMutation() bool {
	return t == CmdAdd || t == CmdRemove || t == CmdAddMeaning || t == CmdUpdateMeaning
}
