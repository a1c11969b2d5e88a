// Package cmd implements the command-line interface of dDict. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the dictionary server
//   - dict: Client commands (query, add, remove, add-meaning, update-meaning),
//     the perf and stress testers and stats
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See ddict -help for a list of all commands.
package cmd
