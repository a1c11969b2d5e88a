package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// StatusClient reads the endpoints served by MetricsServer
type StatusClient struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// NewStatusClient creates a client for one or more metrics endpoints.
// Endpoints without a scheme are treated as http://host:port.
func NewStatusClient(endpoints []string, timeout time.Duration, retryCount int) (*StatusClient, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL
	parsedURLs := make([]*url.URL, len(endpoints))
	for i, server := range endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(server)
		if err != nil {
			return nil, err
		}
		parsedURLs[i] = parsedURL
	}

	if retryCount < 1 {
		retryCount = 1
	}

	return &StatusClient{
		serverURLs: parsedURLs,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		retryCount: retryCount,
	}, nil
}

// Info fetches GET /info and decodes it into v
func (c *StatusClient) Info(ctx context.Context, v interface{}) error {
	body, err := c.get(ctx, "/info")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Metrics fetches GET /metrics in Prometheus text format
func (c *StatusClient) Metrics(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/metrics")
	return string(body), err
}

// Close releases idle connections
func (c *StatusClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// get sends a GET request to the next server (round-robin), retrying on
// transport errors
func (c *StatusClient) get(ctx context.Context, path string) ([]byte, error) {
	idx := c.counter.Add(1) % uint32(len(c.serverURLs))
	requestURL := c.serverURLs[idx].JoinPath(path).String()

	var lastErr error
	for i := 0; i < c.retryCount; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			Logger.Errorf("Failed to close response body: %v", cerr)
		}
		if err != nil {
			return nil, err
		}

		// Check if the response status code is OK
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("http error: %s", resp.Status)
		}
		return body, nil
	}
	return nil, fmt.Errorf("GET %s failed after %d attempts: %w", requestURL, c.retryCount, lastErr)
}
