// Package unix implements a transport for the dictionary's line protocol using
// Unix domain sockets, for clients running on the same machine as the server.
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting sessions, framing, pooling and retries from the
// base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Removes a stale socket file, then creates the listener.
//     The socket file is removed again when the listener is closed.
package unix
