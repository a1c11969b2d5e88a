package testing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/dDict/lib/db"
)

// DBFactory is a function that creates a new SnapshotDB backed by path
type DBFactory func(path string) db.SnapshotDB

// RunSnapshotDBTests runs a comprehensive test suite for a SnapshotDB implementation.
func RunSnapshotDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("LoadMissing", func(t *testing.T) {
			testLoadMissing(t, factory)
		})

		t.Run("LoadEmpty", func(t *testing.T) {
			testLoadEmpty(t, factory)
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("Corrupt", func(t *testing.T) {
			testCorrupt(t, factory)
		})

		t.Run("NoTempFiles", func(t *testing.T) {
			testNoTempFiles(t, factory)
		})

		t.Run("ConcurrentSave", func(t *testing.T) {
			testConcurrentSave(t, factory)
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func dbPath(t testing.TB) string {
	return filepath.Join(t.TempDir(), "dictionary.json")
}

func requireEqualDict(t testing.TB, want, got db.Dictionary) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("Expected %d words, got %d (%v)", len(want), len(got), got)
	}
	for word, meanings := range want {
		gotMeanings, ok := got[word]
		if !ok {
			t.Fatalf("Expected word %q to exist", word)
		}
		if !slices.Equal(meanings, gotMeanings) {
			t.Fatalf("Expected meanings %v for %q, got %v", meanings, word, gotMeanings)
		}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testLoadMissing(t *testing.T, factory DBFactory) {
	database := factory(dbPath(t))
	defer database.Close()

	dict, err := database.Load()
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if dict == nil || len(dict) != 0 {
		t.Fatalf("Expected empty dictionary, got %v", dict)
	}
}

func testLoadEmpty(t *testing.T, factory DBFactory) {
	for _, content := range []string{"", "   \n", "null", "{}"} {
		path := dbPath(t)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		database := factory(path)
		dict, err := database.Load()
		if err != nil {
			t.Errorf("Expected no error for content %q, got %v", content, err)
		}
		if len(dict) != 0 {
			t.Errorf("Expected empty dictionary for content %q, got %v", content, dict)
		}
		_ = database.Close()
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	path := dbPath(t)
	want := db.Dictionary{
		"apple":   {"a fruit", "a company", "a city nickname"},
		"pear":    {"another fruit"},
		"Ümlaut":  {"diacritic <&>"},
		"quote\"": {"line\nbreak"},
	}

	database := factory(path)
	if err := database.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	_ = database.Close()

	// a fresh instance must see the saved snapshot
	database = factory(path)
	defer database.Close()
	got, err := database.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	requireEqualDict(t, want, got)
}

func testOverwrite(t *testing.T, factory DBFactory) {
	path := dbPath(t)
	database := factory(path)
	defer database.Close()

	if err := database.Save(db.Dictionary{"old": {"value"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := db.Dictionary{"new": {"value 1", "value 2"}}
	if err := database.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := database.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	requireEqualDict(t, want, got)
}

func testCorrupt(t *testing.T, factory DBFactory) {
	for _, content := range []string{
		"{",
		"[1,2,3]",
		`{"a": 1}`,
		"not json",
		`{"w": null}`,
		`{"w": []}`,
		`{"w": ["a", "a"]}`,
		`{"w": ["a", "  "]}`,
		`{"": ["a"]}`,
	} {
		path := dbPath(t)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		database := factory(path)
		_, err := database.Load()
		if !errors.Is(err, db.ErrCorruptSnapshot) {
			t.Errorf("Expected ErrCorruptSnapshot for content %q, got %v", content, err)
		}
		_ = database.Close()
	}
}

func testNoTempFiles(t *testing.T, factory DBFactory) {
	path := dbPath(t)
	database := factory(path)
	defer database.Close()

	for i := 0; i < 10; i++ {
		if err := database.Save(db.Dictionary{fmt.Sprintf("word-%d", i): {"meaning"}}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			t.Errorf("Unexpected file left behind: %s", e.Name())
		}
	}
}

func testConcurrentSave(t *testing.T, factory DBFactory) {
	path := dbPath(t)
	database := factory(path)
	defer database.Close()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dict := db.Dictionary{}
			for j := 0; j <= i; j++ {
				dict[fmt.Sprintf("w%d", j)] = []string{strings.Repeat("x", 100*(i+1))}
			}
			if err := database.Save(dict); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// whichever save won, the file must decode to one of the written snapshots
	got, err := database.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) == 0 || len(got) > writers {
		t.Fatalf("Unexpected snapshot size %d", len(got))
	}
}

func testInfo(t *testing.T, factory DBFactory) {
	path := dbPath(t)
	database := factory(path)
	defer database.Close()

	if err := database.Save(db.Dictionary{"a": {"b"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info := database.GetInfo()
	if info.Path != path {
		t.Errorf("Expected path %s, got %s", path, info.Path)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected positive size, got %d", info.SizeBytes)
	}
}
