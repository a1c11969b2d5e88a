package transport

import (
	"net"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport for every non-blank line received and
// must return exactly one response line (without the trailing newline).
type ServerHandleFunc func(req []byte) (resp []byte)

// IEventSink receives notifications about the listener. Implementations must
// be safe for concurrent use, methods are called from session goroutines.
type IEventSink interface {
	// OnLog is called with a human readable description of an event
	// (client connected, client disconnected, listener stopped, ...)
	OnLog(message string)
	// OnClientCountChanged is called with the new number of live sessions
	OnClientCountChanged(count int)
}

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler is called for every request line received
	RegisterHandler(handler ServerHandleFunc)
	// RegisterEventSink registers the receiver of listener events (optional)
	RegisterEventSink(sink IEventSink)
	// Listen starts the transport layer and blocks until Stop is called or the
	// listener fails. A nil error means the listener was stopped.
	Listen(config common.ServerConfig) error
	// Ready is closed once the transport accepts connections
	Ready() <-chan struct{}
	// Addr returns the bound address, nil before Ready is closed
	Addr() net.Addr
	// Stop closes all live sessions and the listener and waits for the session
	// goroutines to exit. It is idempotent and safe to call from any goroutine.
	Stop() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request line to the server and returns the response line
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
