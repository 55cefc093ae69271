package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Framing
// --------------------------------------------------------------------------

// FramingMode defines how the server splits the byte stream of a connection into commands
type FramingMode string

const (
	// FramingRead treats the bytes returned by a single read as one command
	FramingRead FramingMode = "read"
	// FramingLine splits the stream at newlines, so one read may carry several
	// commands and one command may span several reads
	FramingLine FramingMode = "line"
)

// ParseFramingMode converts a flag value into a FramingMode
func ParseFramingMode(s string) (FramingMode, error) {
	switch FramingMode(strings.ToLower(strings.TrimSpace(s))) {
	case FramingRead:
		return FramingRead, nil
	case FramingLine:
		return FramingLine, nil
	default:
		return "", fmt.Errorf("invalid framing mode: %s (expected one of: read, line)", s)
	}
}

// --------------------------------------------------------------------------
// Socket configuration structs
// --------------------------------------------------------------------------

// TCPConf holds TCP socket options applied to every accepted or dialed connection
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec < 0 keeps the OS default
	TCPLingerSec int
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a tKV server.
type ServerConfig struct {
	// Address the server listens on (host:port)
	Endpoint string

	// Number of worker goroutines, one connection occupies one worker
	Workers int

	// Size of the per-read buffer in bytes. In read framing this is the
	// maximum command size, in line framing the maximum line length.
	BufferSize int

	// How the byte stream is split into commands
	Framing FramingMode

	// Read deadline per read, 0 disables the timeout
	IdleTimeoutSecond int64

	// Maximum commands per second per connection, 0 disables rate limiting
	RateLimit float64

	// Address of the HTTP metrics endpoint, empty disables it
	MetricsEndpoint string

	// Interval of the periodic pool stats log line, 0 disables it
	StatsIntervalSecond int64

	// Logging configuration
	LogLevel string

	TCPConf TCPConf
}

// DefaultServerConfig returns the configuration used when no flags are given
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:   "127.0.0.1:0",
		Workers:    12,
		BufferSize: 1024,
		Framing:    FramingRead,
		LogLevel:   "info",
		TCPConf: TCPConf{
			TCPNoDelay:   true,
			TCPLingerSec: -1,
		},
	}
}

// Validate checks the configuration for values the server can not run with
func (c *ServerConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if _, err := ParseFramingMode(string(c.Framing)); err != nil {
		return err
	}
	if c.IdleTimeoutSecond < 0 {
		return fmt.Errorf("idle timeout must not be negative, got %d", c.IdleTimeoutSecond)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// IdleTimeout returns the read deadline as duration
func (c *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSecond) * time.Second
}

// StatsInterval returns the stats log interval as duration
func (c *ServerConfig) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalSecond) * time.Second
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

	disabledOr := func(enabled bool, value string) string {
		if !enabled {
			return "disabled"
		}
		return value
	}

	// Server settings
	addSection("Server")
	addField("Endpoint", c.Endpoint)
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.BufferSize))
	addField("Framing", string(c.Framing))

	// Connection limits
	addSection("Connection Limits")
	addField("Idle Timeout", disabledOr(c.IdleTimeoutSecond > 0, fmt.Sprintf("%d sec", c.IdleTimeoutSecond)))
	addField("Rate Limit", disabledOr(c.RateLimit > 0, fmt.Sprintf("%g cmd/sec", c.RateLimit)))

	// TCP
	addSection("TCP")
	addField("No Delay", strconv.FormatBool(c.TCPConf.TCPNoDelay))
	addField("Keep Alive", disabledOr(c.TCPConf.TCPKeepAliveSec > 0, fmt.Sprintf("%d sec", c.TCPConf.TCPKeepAliveSec)))
	addField("Linger", disabledOr(c.TCPConf.TCPLingerSec >= 0, fmt.Sprintf("%d sec", c.TCPConf.TCPLingerSec)))

	// Observability
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	addField("Metrics Endpoint", disabledOr(c.MetricsEndpoint != "", c.MetricsEndpoint))
	addField("Stats Interval", disabledOr(c.StatsIntervalSecond > 0, fmt.Sprintf("%d sec", c.StatsIntervalSecond)))

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection settings of a client
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	TCPConf                TCPConf
}

// ClientConfig holds all configuration parameters of a tKV client.
type ClientConfig struct {
	// Timeout for a single request, 0 disables it
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// Timeout returns the request timeout as duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
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
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPConf.TCPNoDelay))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
