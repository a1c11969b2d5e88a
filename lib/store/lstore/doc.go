// Package lstore implements a local, single-node dictionary store based on the
// store.IStore interface. The dictionary lives in memory and every successful
// mutation is mirrored to a db.SnapshotDB as a full snapshot.
//
// Implementation Details:
//
//   - Locking: One sync.RWMutex guards the map. Query takes the read lock, all
//     mutations take the write lock for the whole check-mutate-persist-delay
//     sequence, so mutations and file writes are totally ordered and a reader
//     never observes a half-applied mutation.
//
//   - Persistence: After a mutation succeeds structurally the whole dictionary
//     is handed to SnapshotDB.Save while the write lock is still held. A failed
//     save is logged at error level and counted in ddict_persist_failures_total;
//     the in-memory change is kept and the operation still reports success.
//     Rejected operations (duplicate, not found, ...) never write.
//
//   - Delay: A positive delay keeps the write lock held after the save. It is
//     used to make lock serialization observable from clients. Cancelling the
//     context shortens the wait but the lock is only released afterwards.
//
//   - Copies: Meaning slices are copied on the way in (Add) and on the way out
//     (Query), callers never share memory with the store.
//
// Usage Example:
//
//	factory := func() db.SnapshotDB {
//		return jsonfile.NewJSONFileDB(jsonfile.DefaultOptions("dictionary.json"))
//	}
//	s, err := lstore.NewLocalStore(factory)
//	if err != nil {
//		// corrupt dictionary file
//	}
//
//	s.Add(ctx, "apple", []string{"a fruit"}, 0)
//	meanings, found := s.Query("apple")
package lstore
