package server

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ValentinKolb/dDict/lib/store"
	"github.com/ValentinKolb/dDict/rpc/common"
)

// Messages sent to clients
const (
	msgWordNotFound       = "Word '%s' not found."
	msgAdded              = "Word '%s' added successfully."
	msgAlreadyExists      = "Word '%s' already exists."
	msgRemoved            = "Word '%s' removed successfully."
	msgDoesNotExist       = "Word '%s' doesn't exist."
	msgMeaningAdded       = "New meaning added successfully to '%s'."
	msgMeaningUpdated     = "Meaning updated successfully for '%s'."
	msgMeaningExists      = "This meaning already exists for the word '%s'."
	msgMeaningNotFound    = "The specified meaning to update was not found."
	msgAddInvalid         = "Word or meanings cannot be empty."
	msgWordEmpty          = "Word cannot be empty."
	msgNewMeaningEmpty    = "New meaning cannot be empty."
	msgOldMeaningEmpty    = "Meaning to update cannot be empty."
	msgMeaningsNotUnique  = "Meanings must be unique."
	msgStoreUnavailable   = "Store is not available."
	msgUnsupportedCommand = "Unknown command"
)

// AdapterOptions controls how request delays are applied
type AdapterOptions struct {
	// AllowDelay enables the delay field of mutating requests
	AllowDelay bool
	// MaxDelay caps a requested delay, 0 = no cap
	MaxDelay time.Duration
}

// NewIStoreServerAdapter creates the adapter that maps requests onto a store.IStore
func NewIStoreServerAdapter(opts AdapterOptions) IRPCServerAdapter {
	return &iStoreServerAdapterImpl{opts: opts}
}

type iStoreServerAdapterImpl struct {
	opts AdapterOptions
}

func (adapter *iStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Request, s store.IStore) *common.Response {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse(msgStoreUnavailable)
	}

	word := strings.TrimSpace(req.Word)
	delay := adapter.delay(req.Delay)

	// Handle different commands
	switch req.Command {
	case common.CmdQuery:
		if word == "" {
			return common.NewErrorResponse(msgWordEmpty)
		}
		meanings, ok := s.Query(word)
		if !ok {
			return common.NewErrorResponse(fmt.Sprintf(msgWordNotFound, word))
		}
		return common.NewQueryResponse(meanings)

	case common.CmdAdd:
		meanings, ok := trimAll(req.Meanings)
		if word == "" || !ok {
			return common.NewErrorResponse(msgAddInvalid)
		}
		if hasDuplicates(meanings) {
			return common.NewErrorResponse(msgMeaningsNotUnique)
		}
		code := s.Add(ctx, word, meanings, delay)
		return statusResponse(code, word, map[store.RetCode]string{
			store.RetCSuccess:   msgAdded,
			store.RetCDuplicate: msgAlreadyExists,
		})

	case common.CmdRemove:
		if word == "" {
			return common.NewErrorResponse(msgWordEmpty)
		}
		code := s.Remove(ctx, word, delay)
		return statusResponse(code, word, map[store.RetCode]string{
			store.RetCSuccess:  msgRemoved,
			store.RetCNotFound: msgDoesNotExist,
		})

	case common.CmdAddMeaning:
		newMeaning := strings.TrimSpace(req.NewMeaning)
		if word == "" {
			return common.NewErrorResponse(msgWordEmpty)
		}
		if newMeaning == "" {
			return common.NewErrorResponse(msgNewMeaningEmpty)
		}
		code := s.AddMeaning(ctx, word, newMeaning, delay)
		return statusResponse(code, word, map[store.RetCode]string{
			store.RetCSuccess:       msgMeaningAdded,
			store.RetCWordNotFound:  msgWordNotFound,
			store.RetCMeaningExists: msgMeaningExists,
		})

	case common.CmdUpdateMeaning:
		oldMeaning := strings.TrimSpace(req.OldMeaning)
		newMeaning := strings.TrimSpace(req.NewMeaning)
		if word == "" {
			return common.NewErrorResponse(msgWordEmpty)
		}
		if oldMeaning == "" {
			return common.NewErrorResponse(msgOldMeaningEmpty)
		}
		if newMeaning == "" {
			return common.NewErrorResponse(msgNewMeaningEmpty)
		}
		code := s.UpdateMeaning(ctx, word, oldMeaning, newMeaning, delay)
		return statusResponse(code, word, map[store.RetCode]string{
			store.RetCSuccess:         msgMeaningUpdated,
			store.RetCWordNotFound:    msgWordNotFound,
			store.RetCMeaningExists:   msgMeaningExists,
			store.RetCMeaningNotFound: msgMeaningNotFound,
		})

	default:
		return common.NewErrorResponse(msgUnsupportedCommand)
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// maxDelayMillisecond is the largest delay that fits into a time.Duration
const maxDelayMillisecond = math.MaxInt64 / int64(time.Millisecond)

// delay converts the requested milliseconds into the effective delay
func (adapter *iStoreServerAdapterImpl) delay(ms int64) time.Duration {
	if !adapter.opts.AllowDelay || ms <= 0 {
		return 0
	}
	if ms > maxDelayMillisecond {
		ms = maxDelayMillisecond
	}
	d := time.Duration(ms) * time.Millisecond
	if adapter.opts.MaxDelay > 0 && d > adapter.opts.MaxDelay {
		return adapter.opts.MaxDelay
	}
	return d
}

// statusResponse builds the response for a store return code.
// Message templates may reference the word with a single %s.
func statusResponse(code store.RetCode, word string, messages map[store.RetCode]string) *common.Response {
	msg, ok := messages[code]
	if !ok {
		msg = code.String()
	} else if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, word)
	}
	return common.NewStatusResponse(code.Code(), msg)
}

// trimAll trims every meaning. ok is false if the list is empty or any
// meaning is blank.
func trimAll(meanings []string) (trimmed []string, ok bool) {
	if len(meanings) == 0 {
		return nil, false
	}
	trimmed = make([]string, len(meanings))
	for i, m := range meanings {
		trimmed[i] = strings.TrimSpace(m)
		if trimmed[i] == "" {
			return nil, false
		}
	}
	return trimmed, true
}

func hasDuplicates(meanings []string) bool {
	seen := make(map[string]struct{}, len(meanings))
	for _, m := range meanings {
		if _, ok := seen[m]; ok {
			return true
		}
		seen[m] = struct{}{}
	}
	return false
}
