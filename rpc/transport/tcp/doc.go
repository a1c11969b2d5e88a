// Package tcp implements the TCP socket transport of the dictionary's line
// protocol. It provides concrete implementations of the base package's
// connector interfaces; sessions, framing, pooling and retries are inherited
// from the base package.
//
// Key Components:
//
//   - clientConnector: Dials the server with a connect timeout
//
//   - serverConnector: Listens on host:port
//
// Both connectors apply the same socket options (TCP_NODELAY, socket buffer
// sizes, keep-alive and linger) from common.SocketConf and common.TCPConf.
package tcp
