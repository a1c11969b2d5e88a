// Package base provides the protocol-agnostic part of the stream transports
// (TCP, Unix sockets). Messages are framed as lines: one JSON document
// followed by '\n'. Protocol-specific connectors plug in the listening,
// dialing and socket tuning.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - serverTransport (Listener): Accepts connections while running and serves each
//     one in its own goroutine. Live sessions are kept in an xsync.MapOf so Stop can
//     close them; every change of the session count is reported to the registered
//     transport.IEventSink. Stop marks the transport as not running, closes all
//     sessions, closes the listening socket and waits for the session goroutines.
//     It is idempotent; the accept error caused by closing the socket ends Listen
//     with a nil error.
//
//   - session: One accepted connection, cycling through the states
//     awaiting line -> dispatching -> responding. Blank lines are skipped. Exactly
//     one response line is written per request line. EOF, an I/O error, an expired
//     idle deadline or a line longer than the configured limit close the session;
//     nothing is written for a partially received line.
//
//   - clientTransport: Pool of connections (optionally several per endpoint) used
//     in round robin order. Each connection is locked for a whole request/response
//     exchange. Failures before the request was written are retried with
//     exponential backoff and jitter on the next connection; failures after that
//     are returned to the caller, because the server may already have applied the
//     request. Broken connections are redialed lazily on their next use.
//
// Thread Safety:
//
//	All public methods are thread-safe. The Listener must not be stopped from
//	inside a request handler, since Stop waits for all session goroutines.
package base
