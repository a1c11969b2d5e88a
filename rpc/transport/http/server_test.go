package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

func TestMetricsHandler(t *testing.T) {
	metrics.GetOrCreateCounter(`ddict_http_test_total{case="handler"}`).Inc()

	s := NewMetricsServer("127.0.0.1:0", func() interface{} {
		return map[string]interface{}{"path": "dictionary.json", "words": 3}
	}, true)

	tests := []struct {
		method   string
		path     string
		code     int
		contains string
	}{
		{http.MethodGet, "/metrics", http.StatusOK, `ddict_http_test_total{case="handler"} 1`},
		{http.MethodGet, "/healthz", http.StatusOK, "ok"},
		{http.MethodGet, "/info", http.StatusOK, `"words": 3`},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.code {
				t.Fatalf("Expected status %d, got %d", tt.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("Expected body to contain %q, got %q", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestInfoWithoutFunc(t *testing.T) {
	s := NewMetricsServer("127.0.0.1:0", nil, false)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestServerAndStatusClient(t *testing.T) {
	s := NewMetricsServer("127.0.0.1:0", func() interface{} {
		return map[string]interface{}{"db_type": "jsonfile"}
	}, false)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Listen() }()
	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("Listen failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Metrics server did not become ready")
	}

	c, err := NewStatusClient([]string{s.Addr().String()}, 5*time.Second, 2)
	if err != nil {
		t.Fatalf("NewStatusClient failed: %v", err)
	}
	defer c.Close()

	var info struct {
		DbType string `json:"db_type"`
	}
	if err := c.Info(context.Background(), &info); err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.DbType != "jsonfile" {
		t.Fatalf("Expected db_type jsonfile, got %q", info.DbType)
	}

	body, err := c.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("Expected process metrics in output")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Listen returned error after Stop: %v", err)
	}
}

func TestStatusClientErrors(t *testing.T) {
	if _, err := NewStatusClient(nil, time.Second, 1); err == nil {
		t.Errorf("Expected an error without endpoints")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewStatusClient([]string{srv.URL}, time.Second, 1)
	if err != nil {
		t.Fatalf("NewStatusClient failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Metrics(context.Background()); err == nil {
		t.Errorf("Expected an error for status 500")
	}
}

func TestStatusClientRoundRobin(t *testing.T) {
	hits := make([]atomic.Int32, 2)
	servers := make([]string, 2)
	for i := range servers {
		i := i
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits[i].Add(1)
			_, _ = io.WriteString(w, "ok")
		}))
		defer srv.Close()
		servers[i] = srv.URL
	}

	c, err := NewStatusClient(servers, time.Second, 1)
	if err != nil {
		t.Fatalf("NewStatusClient failed: %v", err)
	}
	defer c.Close()

	for i := 0; i < 4; i++ {
		if _, err := c.Metrics(context.Background()); err != nil {
			t.Fatalf("Metrics failed: %v", err)
		}
	}
	if hits[0].Load() != 2 || hits[1].Load() != 2 {
		t.Fatalf("Expected requests to be spread evenly, got %d and %d", hits[0].Load(), hits[1].Load())
	}
}
