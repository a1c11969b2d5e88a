// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.SnapshotDB interface.
//
// The package contains:
//   - testing: A test suite for validating conformance to the SnapshotDB contract
//     (empty/missing files, round trips, corrupt data, atomic replacement)
//   - benchmark: Performance tests for Save and Load of small and large dictionaries
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(path string) db.SnapshotDB {
//		return NewMyDatabase(path)
//	}
//
//	// Running the standard test suite
//	dbtesting.RunSnapshotDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunSnapshotDBBenchmarks(b, "MyDatabase", factory)
package testing
