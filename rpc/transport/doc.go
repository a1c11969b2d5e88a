// Package transport defines the interfaces for moving protocol lines between
// clients and the dictionary server. It provides a common contract that all
// stream transports fulfill, so the server and the client library do not
// depend on a specific network protocol.
//
// Key Components:
//
//   - IRPCServerTransport: The Listener. Accepts connections, runs one session per
//     connection, calls the ServerHandleFunc once per request line and supports an
//     idempotent Stop.
//
//   - IEventSink: Receives listener events (log messages and the number of live
//     sessions), e.g. for a status display.
//
//   - IRPCClientTransport: Client side; sends one request line and returns the
//     matching response line.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport
