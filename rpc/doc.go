// Package rpc is the communication layer of dDict. It connects clients and
// the dictionary server through a line-delimited JSON protocol.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including the
//     Request/Response protocol, configuration structures and logging.
//
//   - transport: Stream transport abstractions with tcp and unix socket
//     implementations, plus the HTTP metrics endpoint.
//
//   - serializer: Conversion between protocol lines and Request/Response
//     values, including validation of required fields.
//
//   - client: The Go client of the dictionary server.
//
//   - server: Request validation, store dispatch and the server lifecycle.
package rpc
