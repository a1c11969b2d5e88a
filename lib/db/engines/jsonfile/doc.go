// Package jsonfile implements db.SnapshotDB on top of a single JSON file.
//
// The file holds one JSON object mapping each word to its ordered list of
// meanings:
//
//	{
//	  "apple": ["a fruit", "a company"],
//	  "pear": ["another fruit"]
//	}
//
// Save writes the complete dictionary to a temporary file in the same
// directory, syncs it and renames it over the target. A crash during Save
// therefore leaves either the old or the new file, never a truncated one.
//
// Load treats a missing file, an empty file and a file containing only
// "null" as an empty dictionary. Anything else that is not a JSON object of
// string arrays is reported as db.ErrCorruptSnapshot, and so is a word with
// no meanings, a blank meaning or the same meaning twice.
package jsonfile
