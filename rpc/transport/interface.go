package transport

import (
	"net"

	"github.com/ValentinKolb/tKV/lib/pool"
	"github.com/ValentinKolb/tKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport for every command read from a connection,
// req holds the raw command bytes and is only valid during the call.
// The returned bytes are written back to the connection as they are.
type ServerHandleFunc func(req []byte) (resp []byte)

// IExecutor runs the per-connection jobs of a server transport.
// *pool.WorkerPool implements this interface.
type IExecutor interface {
	Execute(job pool.Job) error
}

// IRPCServerTransport is the interface for the server transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler that is called for every command.
	// Must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the configured endpoint and starts accepting connections
	// on its own goroutine. Every accepted connection is served by one job
	// submitted to the executor. Returns the bound address.
	Listen(config common.ServerConfig, executor IExecutor) (net.Addr, error)
	// ActiveConnections returns the number of currently open connections
	ActiveConnections() int
	// OnAccept registers a function that is called once for every accepted connection.
	// Must be called before Listen.
	OnAccept(fn func())
	// Shutdown stops accepting connections and closes every open connection.
	// Jobs already submitted to the executor are not waited for.
	Shutdown() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends one request line and returns the response line (without delimiter)
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connections
	Close() error
}
