// Package common provides the data structures shared by the dictionary server,
// the client library and the transports.
//
// The package focuses on:
//   - The line protocol message types (Request, Response, CommandType)
//   - Configuration structures for client and server components
//   - A custom logger format installed into Dragonboat's logger registry
//
// Key Components:
//
//   - Request/Response: One JSON object per line. A Request carries the command
//     and the fields that command needs, a Response carries a status, an optional
//     human readable message and, for a successful query, the meanings.
//     Factory functions create the message for each command.
//
//   - CommandType: Enumeration of the supported commands (query, add, remove,
//     addMeaning, updateMeaning). It is encoded as its name in JSON; unknown
//     names decode to CmdUnknown instead of failing.
//
//   - ServerConfig: Server settings (endpoint, dictionary file, timeouts, line
//     limit, delay policy, metrics endpoint, socket tuning).
//
//   - ClientConfig: Client settings (endpoints, pool size, retries, timeouts and
//     the delay forwarded with mutating requests).
//
//   - Logger: Implementation of Dragonboat's logger.ILogger that writes
//     "DATE TIME LEVEL | name | message". InitLoggers installs it and sets the
//     level of every logger used by this module.
package common
