// Package http implements the HTTP side channel of the dictionary server:
// Prometheus metrics, a health probe and store information. The dictionary
// protocol itself runs over the stream transports (tcp, unix).
//
// Key Components:
//
//   - MetricsServer: Serves GET /metrics (VictoriaMetrics registry in Prometheus
//     text format, including process metrics), GET /healthz and GET /info (JSON
//     produced by an InfoFunc, the server passes the store's database info).
//     With debug logging enabled every request is logged with its status code
//     and duration.
//
//   - StatusClient: Reads /info and /metrics from one or more servers with
//     round-robin selection and retries, used by the CLI.
//
// Thread Safety:
//
//	Both types are safe for concurrent use.
package http
