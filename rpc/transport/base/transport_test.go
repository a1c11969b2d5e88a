package base

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport"
)

// --------------------------------------------------------------------------
// Test connectors
// --------------------------------------------------------------------------

type testServerConnector struct{}

func (testServerConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Endpoint)
}
func (testServerConnector) GetName() string { return "test" }
func (testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil
}

type testClientConnector struct {
	dials atomic.Int32
}

func (c *testClientConnector) Connect(endpoint string) (net.Conn, error) {
	c.dials.Add(1)
	return net.DialTimeout("tcp", endpoint, time.Second)
}
func (*testClientConnector) GetName() string { return "test" }
func (*testClientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	logs   []string
	counts []int
}

func (r *recordingSink) OnLog(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, message)
}

func (r *recordingSink) OnClientCountChanged(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, count)
}

func (r *recordingSink) lastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return -1
	}
	return r.counts[len(r.counts)-1]
}

// startEcho serves a transport that answers every line with "echo:<line>"
func startEcho(t *testing.T, config common.ServerConfig, sink transport.IEventSink) transport.IRPCServerTransport {
	t.Helper()
	if config.Endpoint == "" {
		config.Endpoint = "127.0.0.1:0"
	}

	srv := NewBaseServerTransport(testServerConnector{})
	srv.RegisterHandler(func(req []byte) []byte {
		return append([]byte("echo:"), req...)
	})
	if sink != nil {
		srv.RegisterEventSink(sink)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(config) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("Listen failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Transport did not become ready")
	}

	t.Cleanup(func() {
		_ = srv.Stop()
		if err := <-errCh; err != nil {
			t.Errorf("Listen returned error: %v", err)
		}
	})
	return srv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --------------------------------------------------------------------------
// Framing
// --------------------------------------------------------------------------

func TestReadLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		lines   []string
		lastErr error
	}{
		{"single", "hello\n", 10, []string{"hello"}, io.EOF},
		{"crlf", "a\r\nb\n", 10, []string{"a", "b"}, io.EOF},
		{"empty line", "\nx\n", 10, []string{"", "x"}, io.EOF},
		{"partial line dropped", "a\nunterminated", 20, []string{"a"}, io.EOF},
		{"exact limit", "12345\n", 5, []string{"12345"}, io.EOF},
		{"too long", "123456\n", 5, nil, ErrLineTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))
			var lines []string
			for {
				line, err := readLine(r, tt.max)
				if err != nil {
					if !errors.Is(err, tt.lastErr) {
						t.Fatalf("Expected %v, got %v", tt.lastErr, err)
					}
					break
				}
				lines = append(lines, string(line))
			}
			if strings.Join(lines, "|") != strings.Join(tt.lines, "|") {
				t.Fatalf("Expected lines %q, got %q", tt.lines, lines)
			}
		})
	}
}

func TestReadLineLongerThanBuffer(t *testing.T) {
	// bufio.Reader has a minimum size of 16 bytes, the line spans several fills
	long := strings.Repeat("x", 100)
	r := bufio.NewReaderSize(strings.NewReader(long+"\n"), 16)

	line, err := readLine(r, 200)
	if err != nil {
		t.Fatalf("readLine failed: %v", err)
	}
	if string(line) != long {
		t.Fatalf("Expected %d bytes, got %d", len(long), len(line))
	}

	r = bufio.NewReaderSize(strings.NewReader(long+"\n"), 16)
	if _, err := readLine(r, 50); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("Expected ErrLineTooLong, got %v", err)
	}
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	if err := writeLine(&buf, []byte(`{"status":"success"}`)); err != nil {
		t.Fatalf("writeLine failed: %v", err)
	}
	if buf.String() != "{\"status\":\"success\"}\n" {
		t.Fatalf("Unexpected output %q", buf.String())
	}
}

func TestIsBlank(t *testing.T) {
	for _, in := range []string{"", " ", "\t", " \r "} {
		if !isBlank([]byte(in)) {
			t.Errorf("Expected %q to be blank", in)
		}
	}
	if isBlank([]byte(" x ")) {
		t.Errorf("Expected \" x \" not to be blank")
	}
}

// --------------------------------------------------------------------------
// Server transport
// --------------------------------------------------------------------------

func TestServerEcho(t *testing.T) {
	srv := startEcho(t, common.ServerConfig{}, nil)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	// blank lines are skipped, every other line is answered in order
	if _, err := io.WriteString(conn, "one\n \ntwo\r\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	r := bufio.NewReader(conn)
	for _, want := range []string{"echo:one\n", "echo:two\n"} {
		got, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got != want {
			t.Fatalf("Expected %q, got %q", want, got)
		}
	}
}

func TestServerEvents(t *testing.T) {
	sink := &recordingSink{}
	srv := startEcho(t, common.ServerConfig{}, sink)

	conns := make([]net.Conn, 3)
	for i := range conns {
		c, err := net.Dial("tcp", srv.Addr().String())
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		conns[i] = c
	}
	waitFor(t, "3 clients", func() bool { return sink.lastCount() == 3 })

	_ = conns[0].Close()
	waitFor(t, "2 clients", func() bool { return sink.lastCount() == 2 })

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if sink.lastCount() != 0 {
		t.Fatalf("Expected 0 clients after Stop, got %d", sink.lastCount())
	}

	// remaining connections were closed by Stop
	for _, c := range conns[1:] {
		_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
		if _, err := c.Read(make([]byte, 1)); err == nil {
			t.Errorf("Expected connection to be closed")
		}
		_ = c.Close()
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if !strings.HasPrefix(sink.logs[0], "Server started on ") {
		t.Errorf("Unexpected first event %q", sink.logs[0])
	}
	connected := 0
	for _, l := range sink.logs {
		if strings.HasPrefix(l, "New client connected: ") {
			connected++
		}
	}
	if connected != 3 {
		t.Errorf("Expected 3 connect events, got %d", connected)
	}
	if last := sink.logs[len(sink.logs)-1]; last != "Server stopped" {
		t.Errorf("Expected last event to be 'Server stopped', got %q", last)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	srv := startEcho(t, common.ServerConfig{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Stop(); err != nil {
				t.Errorf("Stop failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second); err == nil {
		t.Errorf("Expected the listener to be closed")
	}
}

func TestListenAfterStop(t *testing.T) {
	srv := NewBaseServerTransport(testServerConnector{})
	srv.RegisterHandler(func(req []byte) []byte { return req })
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := srv.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0"}); err != nil {
		t.Fatalf("Listen after Stop should return nil, got %v", err)
	}
}

func TestListenWithoutHandler(t *testing.T) {
	srv := NewBaseServerTransport(testServerConnector{})
	if err := srv.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0"}); err == nil {
		t.Fatalf("Expected an error without a handler")
	}
}

func TestLineTooLongClosesSession(t *testing.T) {
	sink := &recordingSink{}
	srv := startEcho(t, common.ServerConfig{MaxLineBytes: 16}, sink)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, strings.Repeat("x", 64)+"\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Fatalf("Expected the session to be closed without a response")
	}
	waitFor(t, "session cleanup", func() bool { return sink.lastCount() == 0 })
}

func TestIdleTimeoutClosesSession(t *testing.T) {
	srv := startEcho(t, common.ServerConfig{IdleTimeoutSecond: 1}, nil)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	start := time.Now()
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Fatalf("Expected the idle session to be closed")
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("Idle session was closed by the test deadline, not the server (%s)", elapsed)
	}
}

// --------------------------------------------------------------------------
// Client transport
// --------------------------------------------------------------------------

func newTestClient(t *testing.T, endpoint string, connector *testClientConnector) transport.IRPCClientTransport {
	t.Helper()
	c := NewBaseClientTransport(connector)
	err := c.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             3,
			ConnectionsPerEndpoint: 2,
		},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientSend(t *testing.T) {
	srv := startEcho(t, common.ServerConfig{}, nil)
	connector := &testClientConnector{}
	c := newTestClient(t, srv.Addr().String(), connector)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []byte(strings.Repeat("r", i+1))
			resp, err := c.Send(req)
			if err != nil {
				t.Errorf("Send failed: %v", err)
				return
			}
			if string(resp) != "echo:"+string(req) {
				t.Errorf("Response mismatch: sent %q, got %q", req, resp)
			}
		}(i)
	}
	wg.Wait()

	if n := connector.dials.Load(); n != 2 {
		t.Errorf("Expected 2 dials, got %d", n)
	}
}

func TestClientReconnects(t *testing.T) {
	config := common.ServerConfig{Endpoint: "127.0.0.1:0"}
	srv := startEcho(t, config, nil)
	endpoint := srv.Addr().String()

	connector := &testClientConnector{}
	c := newTestClient(t, endpoint, connector)
	if _, err := c.Send([]byte("before")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// restart the server on the same address, the old connections are dead
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	startEcho(t, common.ServerConfig{Endpoint: endpoint}, nil)

	// the first exchange on a dead connection may fail after the write,
	// it is not retried; the connection is redialed for the next request
	var resp []byte
	var err error
	for i := 0; i < 4; i++ {
		if resp, err = c.Send([]byte("after")); err == nil {
			break
		}
	}
	if err != nil {
		t.Fatalf("Send after restart failed: %v", err)
	}
	if string(resp) != "echo:after" {
		t.Fatalf("Unexpected response %q", resp)
	}
	if connector.dials.Load() <= 2 {
		t.Errorf("Expected the client to redial")
	}
}

func TestClientConnectErrors(t *testing.T) {
	c := NewBaseClientTransport(&testClientConnector{})
	if err := c.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Expected an error without endpoints")
	}

	err := c.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{"127.0.0.1:1"}},
	})
	if err == nil {
		t.Errorf("Expected an error for an unreachable endpoint")
	}

	if _, err := c.Send([]byte("x")); err == nil {
		t.Errorf("Expected an error without connections")
	}
}
