package server

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/lib/db"
	"github.com/ValentinKolb/dDict/lib/db/engines/jsonfile"
	"github.com/ValentinKolb/dDict/lib/store"
	"github.com/ValentinKolb/dDict/lib/store/lstore"
	"github.com/ValentinKolb/dDict/rpc/common"
)

func newAdapterStore(t *testing.T) store.IStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.json")
	s, err := lstore.NewLocalStore(func() db.SnapshotDB {
		return jsonfile.NewJSONFileDB(jsonfile.DefaultOptions(path))
	})
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAdapterHandle(t *testing.T) {
	s := newAdapterStore(t)
	adapter := NewIStoreServerAdapter(AdapterOptions{})
	ctx := context.Background()

	// the steps share one store and run in order
	steps := []struct {
		name     string
		req      *common.Request
		status   string
		message  string
		meanings []string
	}{
		{"query missing", common.NewQueryRequest("apple"), "error", "Word 'apple' not found.", nil},
		{"add", common.NewAddRequest("apple", []string{"fruit", "company"}, 0), "success", "Word 'apple' added successfully.", nil},
		{"add duplicate", common.NewAddRequest("apple", []string{"tree"}, 0), "duplicate", "Word 'apple' already exists.", nil},
		{"query", common.NewQueryRequest("apple"), "success", "", []string{"fruit", "company"}},
		{"query trims word", common.NewQueryRequest("  apple "), "success", "", []string{"fruit", "company"}},
		{"add meaning", common.NewAddMeaningRequest("apple", "tree", 0), "success", "New meaning added successfully to 'apple'.", nil},
		{"add meaning exists", common.NewAddMeaningRequest("apple", "fruit", 0), "meaning_exists", "This meaning already exists for the word 'apple'.", nil},
		{"add meaning unknown word", common.NewAddMeaningRequest("pear", "fruit", 0), "word_not_found", "Word 'pear' not found.", nil},
		{"update meaning", common.NewUpdateMeaningRequest("apple", "company", "brand", 0), "success", "Meaning updated successfully for 'apple'.", nil},
		{"query after update", common.NewQueryRequest("apple"), "success", "", []string{"fruit", "brand", "tree"}},
		{"update unknown meaning", common.NewUpdateMeaningRequest("apple", "company", "x", 0), "meaning_not_found", "The specified meaning to update was not found.", nil},
		{"update to existing", common.NewUpdateMeaningRequest("apple", "brand", "fruit", 0), "meaning_exists", "This meaning already exists for the word 'apple'.", nil},
		{"update unknown word", common.NewUpdateMeaningRequest("pear", "a", "b", 0), "word_not_found", "Word 'pear' not found.", nil},
		{"remove", common.NewRemoveRequest("apple", 0), "success", "Word 'apple' removed successfully.", nil},
		{"remove missing", common.NewRemoveRequest("apple", 0), "not_found", "Word 'apple' doesn't exist.", nil},
	}

	for _, step := range steps {
		resp := adapter.Handle(ctx, step.req, s)
		if resp.Status != step.status || resp.Message != step.message {
			t.Fatalf("%s: expected %s %q, got %s %q", step.name, step.status, step.message, resp.Status, resp.Message)
		}
		if !slices.Equal(resp.Meanings, step.meanings) {
			t.Fatalf("%s: expected meanings %v, got %v", step.name, step.meanings, resp.Meanings)
		}
	}
}

func TestAdapterValidation(t *testing.T) {
	s := newAdapterStore(t)
	adapter := NewIStoreServerAdapter(AdapterOptions{})

	tests := []struct {
		name    string
		req     *common.Request
		message string
	}{
		{"query blank word", common.NewQueryRequest("  "), "Word cannot be empty."},
		{"add blank word", common.NewAddRequest(" ", []string{"a"}, 0), "Word or meanings cannot be empty."},
		{"add no meanings", common.NewAddRequest("w", []string{}, 0), "Word or meanings cannot be empty."},
		{"add blank meaning", common.NewAddRequest("w", []string{"a", " "}, 0), "Word or meanings cannot be empty."},
		{"add duplicate meanings", common.NewAddRequest("w", []string{"a", " a"}, 0), "Meanings must be unique."},
		{"remove blank word", common.NewRemoveRequest("", 0), "Word cannot be empty."},
		{"add meaning blank word", common.NewAddMeaningRequest("", "a", 0), "Word cannot be empty."},
		{"add meaning blank meaning", common.NewAddMeaningRequest("w", "\t", 0), "New meaning cannot be empty."},
		{"update blank word", common.NewUpdateMeaningRequest("", "a", "b", 0), "Word cannot be empty."},
		{"update blank old", common.NewUpdateMeaningRequest("w", "", "b", 0), "Meaning to update cannot be empty."},
		{"update blank new", common.NewUpdateMeaningRequest("w", "a", " ", 0), "New meaning cannot be empty."},
		{"unknown command", &common.Request{Command: common.CmdUnknown, Word: "w"}, "Unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := adapter.Handle(context.Background(), tt.req, s)
			if resp.Status != common.StatusError || resp.Message != tt.message {
				t.Errorf("Expected error %q, got %s %q", tt.message, resp.Status, resp.Message)
			}
		})
	}

	if n := s.Size(); n != 0 {
		t.Errorf("Rejected requests must not touch the store, got %d words", n)
	}
}

func TestAdapterNilStore(t *testing.T) {
	resp := NewIStoreServerAdapter(AdapterOptions{}).Handle(context.Background(), common.NewQueryRequest("w"), nil)
	if resp.OK() {
		t.Fatalf("Expected an error response without a store")
	}
}

func TestAdapterDelay(t *testing.T) {
	tests := []struct {
		name     string
		opts     AdapterOptions
		ms       int64
		expected time.Duration
	}{
		{"disabled", AdapterOptions{AllowDelay: false}, 500, 0},
		{"enabled", AdapterOptions{AllowDelay: true}, 500, 500 * time.Millisecond},
		{"negative", AdapterOptions{AllowDelay: true}, -5, 0},
		{"capped", AdapterOptions{AllowDelay: true, MaxDelay: time.Second}, 5000, time.Second},
		{"below cap", AdapterOptions{AllowDelay: true, MaxDelay: time.Second}, 20, 20 * time.Millisecond},
		{"huge uncapped", AdapterOptions{AllowDelay: true}, math.MaxInt64, time.Duration(maxDelayMillisecond) * time.Millisecond},
		{"huge capped", AdapterOptions{AllowDelay: true, MaxDelay: time.Second}, math.MaxInt64, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &iStoreServerAdapterImpl{opts: tt.opts}
			if got := adapter.delay(tt.ms); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
