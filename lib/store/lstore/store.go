package lstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dDict/lib/db"
	"github.com/ValentinKolb/dDict/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

var (
	persistFailures = metrics.NewCounter("ddict_persist_failures_total")
	persistDuration = metrics.NewHistogram("ddict_persist_duration_seconds")
)

type storeImpl struct {
	mu   sync.RWMutex
	dict db.Dictionary
	db   db.SnapshotDB

	persistFailures atomic.Uint64
	lastPersist     atomic.Int64 // unix nano
}

// NewLocalStore creates a new local store instance and loads the current
// snapshot from the database created by factory.
// A missing or empty snapshot yields an empty dictionary, a corrupt one an error.
func NewLocalStore(factory store.DBFactory) (store.IStore, error) {
	database := factory()
	dict, err := database.Load()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	if dict == nil {
		dict = db.Dictionary{}
	}
	return &storeImpl{
		dict: dict,
		db:   database,
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// persist writes the full dictionary to the database.
// Failures are logged and counted but never change the outcome of the write.
//
// Thread-safety: the caller must hold the write lock.
func (s *storeImpl) persist() {
	start := time.Now()
	err := s.db.Save(s.dict)
	persistDuration.UpdateDuration(start)
	if err != nil {
		s.persistFailures.Add(1)
		persistFailures.Inc()
		Logger.Errorf("failed to persist dictionary (%d words): %v", len(s.dict), err)
		return
	}
	s.lastPersist.Store(time.Now().UnixNano())
}

// hold blocks for delay or until ctx is done, whichever comes first.
//
// Thread-safety: the caller holds the write lock for the whole duration.
func (s *storeImpl) hold(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	Logger.Debugf("holding write lock for %s (simulated slow write)", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		Logger.Debugf("simulated slow write interrupted: %v", ctx.Err())
	}
}

func observe(op string, start time.Time) {
	metrics.GetOrCreateHistogram(`ddict_store_op_duration_seconds{op="` + op + `"}`).UpdateDuration(start)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Query(word string) ([]string, bool) {
	defer observe("query", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	meanings, ok := s.dict[word]
	if !ok {
		return nil, false
	}
	return slices.Clone(meanings), true
}

func (s *storeImpl) Add(ctx context.Context, word string, meanings []string, delay time.Duration) store.RetCode {
	defer observe("add", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dict[word]; ok {
		return store.RetCDuplicate
	}
	s.dict[word] = slices.Clone(meanings)
	s.persist()
	s.hold(ctx, delay)
	return store.RetCSuccess
}

func (s *storeImpl) Remove(ctx context.Context, word string, delay time.Duration) store.RetCode {
	defer observe("remove", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dict[word]; !ok {
		return store.RetCNotFound
	}
	delete(s.dict, word)
	s.persist()
	s.hold(ctx, delay)
	return store.RetCSuccess
}

func (s *storeImpl) AddMeaning(ctx context.Context, word, newMeaning string, delay time.Duration) store.RetCode {
	defer observe("add_meaning", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	meanings, ok := s.dict[word]
	if !ok {
		return store.RetCWordNotFound
	}
	if slices.Contains(meanings, newMeaning) {
		return store.RetCMeaningExists
	}
	// never append into a backing array that might be shared
	s.dict[word] = append(slices.Clip(meanings), newMeaning)
	s.persist()
	s.hold(ctx, delay)
	return store.RetCSuccess
}

func (s *storeImpl) UpdateMeaning(ctx context.Context, word, oldMeaning, newMeaning string, delay time.Duration) store.RetCode {
	defer observe("update_meaning", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	meanings, ok := s.dict[word]
	if !ok {
		return store.RetCWordNotFound
	}
	idx := slices.Index(meanings, oldMeaning)
	if idx < 0 {
		return store.RetCMeaningNotFound
	}
	if slices.Contains(meanings, newMeaning) {
		return store.RetCMeaningExists
	}
	meanings[idx] = newMeaning
	s.persist()
	s.hold(ctx, delay)
	return store.RetCSuccess
}

func (s *storeImpl) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dict)
}

func (s *storeImpl) GetDBInfo() db.DatabaseInfo {
	info := s.db.GetInfo()
	stats := store.Stats{
		Words:           s.Size(),
		PersistFailures: s.persistFailures.Load(),
		Engine:          info.Metadata,
	}
	if ts := s.lastPersist.Load(); ts != 0 {
		stats.LastPersist = time.Unix(0, ts)
	}
	info.Metadata = stats
	return info
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
