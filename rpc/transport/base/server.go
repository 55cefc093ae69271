package base

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/transport"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	defaultBufferSize = 1024
	// acceptRetryDelay throttles the accept loop after a non-fatal accept error
	acceptRetryDelay = 5 * time.Millisecond
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig
	executor  transport.IExecutor
	listener  net.Listener

	// bufferPool holds read buffers for read framing, readerPool line readers for line framing
	bufferPool *sync.Pool
	readerPool *sync.Pool

	// open connections by connection id
	conns    *xsync.MapOf[string, net.Conn]
	onAccept func()

	closing    atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
	acceptDone chan struct{}
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[string, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig, executor transport.IExecutor) (net.Addr, error) {
	if t.handler == nil {
		return nil, fmt.Errorf("no handler registered")
	}
	if executor == nil {
		return nil, fmt.Errorf("no executor provided")
	}
	if t.listener != nil {
		return nil, fmt.Errorf("%s transport is already listening", t.connector.GetName())
	}

	if config.BufferSize < 1 {
		config.BufferSize = defaultBufferSize
	}
	t.config = config
	t.executor = executor

	bufferSize := config.BufferSize
	t.bufferPool = &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, bufferSize)
			return &buf
		},
	}
	t.readerPool = &sync.Pool{
		New: func() interface{} {
			return bufio.NewReaderSize(nil, bufferSize)
		},
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener = listener
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.acceptDone = make(chan struct{})

	Logger.Infof("Starting %s server on %s (framing: %s, buffer: %d bytes)",
		t.connector.GetName(), listener.Addr(), config.Framing, bufferSize)

	go t.acceptLoop()

	return listener.Addr(), nil
}

func (t *serverTransport) ActiveConnections() int {
	return t.conns.Size()
}

func (t *serverTransport) OnAccept(fn func()) {
	t.onAccept = fn
}

func (t *serverTransport) Shutdown() error {
	if !t.closing.CompareAndSwap(false, true) {
		return nil
	}
	if t.listener == nil {
		return nil
	}

	// unblock limiter waits
	t.cancel()

	var err error
	if cErr := t.listener.Close(); cErr != nil && !errors.Is(cErr, net.ErrClosed) {
		err = fmt.Errorf("failed to close listener: %w", cErr)
	}
	<-t.acceptDone

	// closing the sockets makes every blocked read return, the handlers
	// remove themselves from the map
	closed := 0
	t.conns.Range(func(id string, conn net.Conn) bool {
		if cErr := conn.Close(); cErr != nil && !errors.Is(cErr, net.ErrClosed) {
			Logger.Debugf("[%s] close on shutdown: %v", id, cErr)
		}
		closed++
		return true
	})

	Logger.Infof("%s server stopped, closed %d open connections", t.connector.GetName(), closed)
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acceptLoop accepts connections until the listener is closed
func (t *serverTransport) acceptLoop() {
	defer close(t.acceptDone)

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptRetryDelay)
			continue
		}
		t.accept(conn)
	}
}

// accept registers a connection and submits its handler to the executor
func (t *serverTransport) accept(conn net.Conn) {
	id := ulid.Make().String()
	if t.onAccept != nil {
		t.onAccept()
	}

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("[%s] failed to upgrade connection: %v", id, err)
	}

	t.conns.Store(id, conn)
	if t.closing.Load() {
		t.closeConnection(id, conn)
		return
	}

	Logger.Debugf("[%s] accepted connection from %s", id, conn.RemoteAddr())

	if err := t.executor.Execute(func() { t.handleConnection(id, conn) }); err != nil {
		Logger.Errorf("[%s] failed to schedule connection: %v", id, err)
		t.closeConnection(id, conn)
	}
}

// closeConnection closes the socket and forgets the connection
func (t *serverTransport) closeConnection(id string, conn net.Conn) {
	t.conns.Delete(id)
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		Logger.Debugf("[%s] close: %v", id, err)
	}
}

// handleConnection serves one connection until the client disconnects or a read fails.
// It runs on a worker of the executor and occupies it for the lifetime of the connection.
func (t *serverTransport) handleConnection(id string, conn net.Conn) {
	defer t.closeConnection(id, conn)

	c := newServerConn(id, conn, t.config)

	var err error
	switch t.config.Framing {
	case common.FramingLine:
		err = t.serveLines(c)
	default:
		err = t.serveReads(c)
	}

	switch {
	case err == nil || errors.Is(err, io.EOF):
		Logger.Debugf("[%s] connection closed by client", id)
	case t.closing.Load():
		Logger.Debugf("[%s] connection closed by shutdown", id)
	case errors.Is(err, os.ErrDeadlineExceeded):
		Logger.Infof("[%s] connection idle for more than %s, closing", id, t.config.IdleTimeout())
	default:
		Logger.Errorf("[%s] error handling connection: %v", id, err)
	}
}

// serveReads treats the bytes of every read as one command
func (t *serverTransport) serveReads(c *serverConn) error {
	bufPtr := t.bufferPool.Get().(*[]byte)
	defer t.bufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		if err := c.armReadDeadline(); err != nil {
			return err
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			if dErr := t.dispatch(c, buf[:n]); dErr != nil {
				return dErr
			}
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
}

// serveLines splits the stream at the delimiter, a read may carry any number of commands
func (t *serverTransport) serveLines(c *serverConn) error {
	reader := t.readerPool.Get().(*bufio.Reader)
	reader.Reset(c.conn)
	defer func() {
		reader.Reset(nil)
		t.readerPool.Put(reader)
	}()

	for {
		if err := c.armReadDeadline(); err != nil {
			return err
		}

		line, err := reader.ReadSlice(common.Delimiter)
		switch {
		case err == nil:
			if dErr := t.dispatch(c, line); dErr != nil {
				return dErr
			}

		case errors.Is(err, bufio.ErrBufferFull):
			if dErr := discardLine(c, reader); dErr != nil {
				return dErr
			}
			Logger.Debugf("[%s] discarded line longer than %d bytes", c.id, t.config.BufferSize)
			c.write(common.FormatResponse("", common.ErrCommandTooLong))

		default:
			// last command without delimiter
			if errors.Is(err, io.EOF) && len(line) > 0 {
				if dErr := t.dispatch(c, line); dErr != nil {
					return dErr
				}
			}
			return err
		}
	}
}

// dispatch runs the handler for one command and writes the response
func (t *serverTransport) dispatch(c *serverConn, req []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(t.ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	resp := t.handler(req)
	Logger.Debugf("[%s] processed %d byte request in %s", c.id, len(req), time.Since(start))

	c.write(resp)
	return nil
}
