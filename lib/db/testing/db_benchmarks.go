package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dDict/lib/db"
)

// RunSnapshotDBBenchmarks runs all benchmarks for a snapshot database implementation
func RunSnapshotDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("SaveSmall", func(b *testing.B) {
		benchmarkSave(b, factory, 10)
	})

	b.Run("SaveLarge", func(b *testing.B) {
		benchmarkSave(b, factory, 10_000)
	})

	b.Run("Load", func(b *testing.B) {
		benchmarkLoad(b, factory, 10_000)
	})
}

func generateDict(words int) db.Dictionary {
	dict := make(db.Dictionary, words)
	for i := 0; i < words; i++ {
		dict[fmt.Sprintf("word-%d", i)] = []string{
			fmt.Sprintf("first meaning of %d", i),
			fmt.Sprintf("second meaning of %d", i),
		}
	}
	return dict
}

func benchmarkSave(b *testing.B, factory DBFactory, words int) {
	database := factory(filepath.Join(b.TempDir(), "bench.json"))
	defer database.Close()
	dict := generateDict(words)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Save(dict); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}

func benchmarkLoad(b *testing.B, factory DBFactory, words int) {
	database := factory(filepath.Join(b.TempDir(), "bench.json"))
	defer database.Close()
	if err := database.Save(generateDict(words)); err != nil {
		b.Fatalf("Save failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := database.Load(); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}
