package client

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/server"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/ValentinKolb/dDict/rpc/transport/tcp"
	"github.com/ValentinKolb/dDict/rpc/transport/unix"
)

type transportPair struct {
	name   string
	server func() transport.IRPCServerTransport
	client func() transport.IRPCClientTransport
}

var transports = []transportPair{
	{"tcp", tcp.NewTCPServerTransport, tcp.NewTCPClientTransport},
	{"unix", unix.NewUnixServerTransport, unix.NewUnixClientTransport},
}

// startServer runs a dictionary server for the transport and returns its endpoint
func startServer(t *testing.T, tp transportPair) string {
	t.Helper()
	dir := t.TempDir()

	endpoint := "127.0.0.1:0"
	if tp.name == "unix" {
		// socket paths are limited to ~100 bytes, t.TempDir() may be longer
		sockDir, err := os.MkdirTemp("", "ddict")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.RemoveAll(sockDir) })
		endpoint = filepath.Join(sockDir, "ddict.sock")
	}

	s := server.NewRPCServer(common.ServerConfig{
		Endpoint:            endpoint,
		DictionaryPath:      filepath.Join(dir, "dictionary.json"),
		TimeoutSecond:       5,
		AllowDelay:          true,
		MaxDelayMillisecond: common.DefaultMaxDelayMillisecond,
		LogLevel:            "error",
	}, tp.server(), serializer.NewJSONSerializer())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("Serve failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Server did not become ready")
	}
	t.Cleanup(func() {
		_ = s.Stop()
		<-errCh
	})

	return s.Addr().String()
}

func newClient(t *testing.T, tp transportPair, endpoint string, delayMs int64) IDictionary {
	t.Helper()
	d, err := NewRPCDictionary(common.ClientConfig{
		TimeoutSecond:    5,
		DelayMillisecond: delayMs,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             3,
			ConnectionsPerEndpoint: 2,
		},
	}, tp.client(), serializer.NewJSONSerializer())
	if err != nil {
		t.Fatalf("NewRPCDictionary failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func expectStatus(t *testing.T, resp *common.Response, err error, status string) *common.Response {
	t.Helper()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.Status != status {
		t.Fatalf("Expected status %s, got %s (%s)", status, resp.Status, resp.Message)
	}
	return resp
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestDictionaryOperations(t *testing.T) {
	for _, tp := range transports {
		t.Run(tp.name, func(t *testing.T) {
			d := newClient(t, tp, startServer(t, tp), 0)

			resp, err := d.Query("ocean")
			expectStatus(t, resp, err, "error")

			resp, err = d.Add("ocean", []string{"a large body of water"})
			expectStatus(t, resp, err, "success")

			resp, err = d.Add("ocean", []string{"again"})
			expectStatus(t, resp, err, "duplicate")

			resp, err = d.AddMeaning("ocean", "a vast expanse")
			expectStatus(t, resp, err, "success")

			resp, err = d.AddMeaning("ocean", "a vast expanse")
			expectStatus(t, resp, err, "meaning_exists")

			resp, err = d.UpdateMeaning("ocean", "a large body of water", "salt water")
			expectStatus(t, resp, err, "success")

			resp, err = d.UpdateMeaning("ocean", "missing", "x")
			expectStatus(t, resp, err, "meaning_not_found")

			resp, err = d.UpdateMeaning("lake", "a", "b")
			expectStatus(t, resp, err, "word_not_found")

			resp, err = d.Query("ocean")
			resp = expectStatus(t, resp, err, "success")
			if !slices.Equal(resp.Meanings, []string{"salt water", "a vast expanse"}) {
				t.Fatalf("Unexpected meanings: %v", resp.Meanings)
			}

			resp, err = d.Remove("ocean")
			expectStatus(t, resp, err, "success")

			resp, err = d.Remove("ocean")
			expectStatus(t, resp, err, "not_found")
		})
	}
}

func TestBlankInputReachesValidation(t *testing.T) {
	tp := transports[0]
	d := newClient(t, tp, startServer(t, tp), 0)

	if resp, err := d.Add("w", []string{"m"}); err != nil || !resp.OK() {
		t.Fatalf("Add failed: %v %+v", err, resp)
	}

	tests := []struct {
		name    string
		call    func() (*common.Response, error)
		message string
	}{
		{"AddNoMeanings", func() (*common.Response, error) { return d.Add("x", nil) }, "Word or meanings cannot be empty."},
		{"AddMeaningBlank", func() (*common.Response, error) { return d.AddMeaning("w", "") }, "New meaning cannot be empty."},
		{"UpdateBlankOld", func() (*common.Response, error) { return d.UpdateMeaning("w", "", "x") }, "Meaning to update cannot be empty."},
		{"UpdateBlankNew", func() (*common.Response, error) { return d.UpdateMeaning("w", "m", " ") }, "New meaning cannot be empty."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			resp = expectStatus(t, resp, err, common.StatusError)
			if resp.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, resp.Message)
			}
		})
	}
}

func TestConcurrentClients(t *testing.T) {
	tp := transports[0]
	d := newClient(t, tp, startServer(t, tp), 0)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			word := "word-" + string(rune('a'+i))
			if _, err := d.Add(word, []string{"m"}); err != nil {
				errs <- err
				return
			}
			resp, err := d.Query(word)
			if err != nil {
				errs <- err
				return
			}
			if !resp.OK() {
				t.Errorf("Query %s failed: %s", word, resp.Message)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Request failed: %v", err)
	}
}

func TestDelayIsForwarded(t *testing.T) {
	tp := transports[0]
	endpoint := startServer(t, tp)
	d := newClient(t, tp, endpoint, 200)

	start := time.Now()
	resp, err := d.Add("slow", []string{"m"})
	expectStatus(t, resp, err, "success")
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Expected the server to hold the request for 200ms, took %s", elapsed)
	}

	// queries never carry a delay
	start = time.Now()
	resp, err = d.Query("slow")
	expectStatus(t, resp, err, "success")
	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Errorf("Query should not be delayed, took %s", elapsed)
	}
}

func TestConnectFailure(t *testing.T) {
	_, err := NewRPCDictionary(common.ClientConfig{
		TimeoutSecond: 1,
		Transport: common.ClientTransportConfig{
			Endpoints: []string{"127.0.0.1:1"},
		},
	}, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
	if err == nil {
		t.Fatalf("Expected an error when no endpoint is reachable")
	}
}

func TestSendAfterClose(t *testing.T) {
	tp := transports[0]
	d := newClient(t, tp, startServer(t, tp), 0)
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := d.Query("x"); err == nil {
		t.Fatalf("Expected an error after Close")
	}
}
