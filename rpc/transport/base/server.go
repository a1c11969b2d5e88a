package base

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	readBufferSize = 64 * 1024

	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Session
// -----------------------------------------------------------

type sessionState uint32

const (
	stateAwaitingLine sessionState = iota
	stateDispatching
	stateResponding
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAwaitingLine:
		return "awaiting line"
	case stateDispatching:
		return "dispatching"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session is the state of one accepted connection
type session struct {
	id        uint64
	conn      net.Conn
	remote    string
	state     atomic.Uint32
	closeOnce sync.Once
}

func (s *session) setState(state sessionState) {
	s.state.Store(uint32(state))
}

func (s *session) getState() sessionState {
	return sessionState(s.state.Load())
}

// close closes the connection, a blocked read or write returns immediately
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.setState(stateClosed)
		_ = s.conn.Close()
	})
}

// -----------------------------------------------------------
// Default event sink
// -----------------------------------------------------------

// loggingSink writes listener events to the transport logger
type loggingSink struct{}

func (loggingSink) OnLog(message string) {
	Logger.Infof("%s", message)
}

func (loggingSink) OnClientCountChanged(count int) {
	Logger.Debugf("Active clients: %d", count)
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	sink      transport.IEventSink
	config    common.ServerConfig

	mu       sync.Mutex // guards listener, running and stopped
	listener net.Listener
	running  bool
	stopped  bool

	ready     chan struct{}
	readyOnce sync.Once
	stopOnce  sync.Once
	stopErr   error

	sessions *xsync.MapOf[uint64, *session]
	nextID   atomic.Uint64
	wg       sync.WaitGroup

	// countMu orders client count reports, the last report is always current
	countMu sync.Mutex
	active  int
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport that serves one
// goroutine per connection
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		sink:      loggingSink{},
		ready:     make(chan struct{}),
		sessions:  xsync.NewMapOf[uint64, *session](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) RegisterEventSink(sink transport.IEventSink) {
	if sink == nil {
		sink = loggingSink{}
	}
	t.sink = sink
}

func (t *serverTransport) Ready() <-chan struct{} {
	return t.ready
}

func (t *serverTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("no handler registered")
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	if t.listener != nil {
		t.mu.Unlock()
		return errors.New("transport is already listening")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("failed to create %s listener on %s: %w", t.connector.GetName(), config.Endpoint, err)
	}
	t.listener = listener
	t.running = true
	t.mu.Unlock()

	t.readyOnce.Do(func() { close(t.ready) })
	t.emit("Server started on %s (%s)", listener.Addr(), t.connector.GetName())

	// Accept connections
	backoff := time.Duration(0)
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Stop closed the listener
			if !t.isRunning() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed unexpectedly: %w", err)
			}

			// e.g. too many open files, retry with backoff
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			Logger.Errorf("Accept error: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		t.startSession(conn)
	}
}

func (t *serverTransport) Stop() error {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.running = false
		t.stopped = true
		listener := t.listener
		t.mu.Unlock()

		// no session can be added once running is false
		t.sessions.Range(func(_ uint64, s *session) bool {
			s.close()
			return true
		})

		if listener != nil {
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				t.stopErr = fmt.Errorf("failed to close listener: %w", err)
			}
		}

		t.wg.Wait()
		t.emit("Server stopped")
	})
	return t.stopErr
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// emit sends a formatted message to the event sink
func (t *serverTransport) emit(format string, args ...interface{}) {
	t.sink.OnLog(fmt.Sprintf(format, args...))
}

// updateCount changes the number of live sessions and reports it to the sink
func (t *serverTransport) updateCount(delta int) {
	t.countMu.Lock()
	defer t.countMu.Unlock()
	t.active += delta
	t.sink.OnClientCountChanged(t.active)
}

// startSession registers conn as a live session and serves it in a new goroutine
func (t *serverTransport) startSession(conn net.Conn) {
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("Failed to apply socket options to %s: %v", conn.RemoteAddr(), err)
	}

	s := &session{
		id:     t.nextID.Add(1),
		conn:   conn,
		remote: remoteName(conn),
	}

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.sessions.Store(s.id, s)
	t.wg.Add(1)
	t.mu.Unlock()

	t.emit("New client connected: %s", s.remote)
	t.updateCount(1)

	go t.serve(s)
}

// serve runs the request loop of one session until the peer disconnects,
// an I/O error occurs or the session is closed by Stop
func (t *serverTransport) serve(s *session) {
	defer func() {
		s.close()
		t.sessions.Delete(s.id)
		t.emit("Client disconnected: %s", s.remote)
		t.updateCount(-1)
		t.wg.Done()
	}()

	reader := bufio.NewReaderSize(s.conn, readBufferSize)
	maxLine := t.config.LineLimit()
	idleTimeout := time.Duration(t.config.IdleTimeoutSecond) * time.Second
	writeTimeout := time.Duration(t.config.TimeoutSecond) * time.Second

	for {
		s.setState(stateAwaitingLine)
		if idleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
				t.logSessionEnd(s, err)
				return
			}
		}

		line, err := readLine(reader, maxLine)
		if err != nil {
			t.logSessionEnd(s, err)
			return
		}
		if isBlank(line) {
			continue
		}

		s.setState(stateDispatching)
		start := time.Now()
		resp := t.handler(line)
		Logger.Debugf("Processed request from %s in %s", s.remote, time.Since(start))

		s.setState(stateResponding)
		if writeTimeout > 0 {
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				t.logSessionEnd(s, err)
				return
			}
		}
		if err := writeLine(s.conn, resp); err != nil {
			t.logSessionEnd(s, err)
			return
		}
	}
}

// logSessionEnd logs why a session ended, at a level matching the cause
func (t *serverTransport) logSessionEnd(s *session, err error) {
	switch {
	case s.getState() == stateClosed || isDisconnect(err):
		Logger.Debugf("Connection %s closed: %v", s.remote, err)
	case isTimeout(err):
		Logger.Infof("Connection %s timed out", s.remote)
	case errors.Is(err, ErrLineTooLong):
		Logger.Warningf("Connection %s sent a line longer than %d bytes", s.remote, t.config.LineLimit())
	default:
		Logger.Errorf("Error handling connection %s: %v", s.remote, err)
	}
}

// remoteName returns a printable name of the peer
func remoteName(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil || addr.String() == "" || addr.String() == "@" {
		return fmt.Sprintf("%s (local)", conn.LocalAddr())
	}
	return addr.String()
}
