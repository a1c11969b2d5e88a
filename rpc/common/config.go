package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Socket configuration (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds the settings that apply to every stream socket
type SocketConf struct {
	WriteBufferSize int // in bytes, 0 = OS default
	ReadBufferSize  int // in bytes, 0 = OS default
}

// TCPConf holds the settings that only apply to TCP sockets
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // < 0 = OS default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

const (
	DefaultMaxLineBytes        = 1 << 20 // 1 MiB
	DefaultMaxDelayMillisecond = 10_000
)

// ServerTransportConfig holds the transport specific server settings
type ServerTransportConfig struct {
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the dictionary server.
type ServerConfig struct {
	// Address to listen on (host:port for tcp, socket path for unix)
	Endpoint string

	// Backing file of the dictionary
	DictionaryPath string

	// Write timeout per response, 0 = none
	TimeoutSecond int64
	// Read timeout per line, 0 = sessions may idle forever
	IdleTimeoutSecond int64
	// Maximum size of one request line, longer lines close the session
	MaxLineBytes int

	// Whether requests may ask the store to hold the write lock
	AllowDelay bool
	// Upper bound for a requested delay
	MaxDelayMillisecond int64

	// Address of the Prometheus metrics endpoint, empty = disabled
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	Transport ServerTransportConfig
}

// LineLimit returns MaxLineBytes or the default if unset
func (c *ServerConfig) LineLimit() int {
	if c.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return c.MaxLineBytes
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Write Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.IdleTimeoutSecond))
	addField("Max Line Size", fmt.Sprintf("%d bytes", c.LineLimit()))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))

	// Store settings
	addSection("Dictionary")
	addField("File", c.DictionaryPath)
	addField("Allow Delay", strconv.FormatBool(c.AllowDelay))
	addField("Max Delay", fmt.Sprintf("%d ms", c.MaxDelayMillisecond))

	// Observability
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	metrics := c.MetricsEndpoint
	if metrics == "" {
		metrics = "disabled"
	}
	addField("Metrics Endpoint", metrics)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the transport specific client settings
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	// Delay forwarded with every mutating request
	DelayMillisecond int64
	Transport        ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Delay", fmt.Sprintf("%d ms", c.DelayMillisecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
