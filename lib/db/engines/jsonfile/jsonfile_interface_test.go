package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/dDict/lib/db"
	dbtesting "github.com/ValentinKolb/dDict/lib/db/testing"
)

func factory(path string) db.SnapshotDB {
	return NewJSONFileDB(DefaultOptions(path))
}

func Test(t *testing.T) {
	dbtesting.RunSnapshotDBTests(t, "JSONFileDB", factory)
}

func Benchmark(b *testing.B) {
	dbtesting.RunSnapshotDBBenchmarks(b, "JSONFileDB", factory)
}

func TestCompactOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.json")
	database := NewJSONFileDB(&DBOptions{Path: path})
	defer database.Close()

	if err := database.Save(db.Dictionary{"a": {"<b>"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != `{"a":["<b>"]}` {
		t.Errorf("Unexpected file content %s", got)
	}
}

func TestSaveAfterClose(t *testing.T) {
	database := factory(filepath.Join(t.TempDir(), "dict.json"))
	_ = database.Close()
	if err := database.Save(db.Dictionary{}); err == nil {
		t.Error("Expected error when saving to a closed database")
	}
}

func TestSaveIntoMissingDir(t *testing.T) {
	database := factory(filepath.Join(t.TempDir(), "missing", "dict.json"))
	defer database.Close()
	if err := database.Save(db.Dictionary{"a": {"b"}}); err == nil {
		t.Error("Expected error when directory does not exist")
	}
}
