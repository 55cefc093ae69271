package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/tKV/lib/command"
	"github.com/ValentinKolb/tKV/lib/pool"
	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/ValentinKolb/tKV/lib/store/lstore"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

const metricsShutdownTimeout = 5 * time.Second

// Server is a tKV server. It owns the shared store, the worker pool and the
// transport that feeds accepted connections into the pool.
type Server struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	store     store.IStore

	mu            sync.Mutex
	started       bool
	stopped       bool
	pool          *pool.WorkerPool
	metrics       *serverMetrics
	metricsServer *metricsServer
	addr          net.Addr
	stopStats     chan struct{}
}

// NewServer creates a new server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s, err := server.NewServer(config, tcp.NewTCPServerTransport())
//	if err != nil {
//		return err
//	}
//
//	if err := s.Serve(); err != nil {
//		return err
//	}
func NewServer(config common.ServerConfig, transport transport.IRPCServerTransport) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if transport == nil {
		return nil, fmt.Errorf("no transport provided")
	}

	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &Server{
		config:    config,
		transport: transport,
		store:     lstore.NewLocalStore(),
	}, nil
}

// Start creates the worker pool and starts accepting connections.
// It returns the address the server listens on and does not block.
func (s *Server) Start() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, fmt.Errorf("server already started")
	}

	p, err := pool.NewWorkerPool(s.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	s.metrics = newServerMetrics(s.store, s.transport, p)
	s.registerTransportHandler()

	addr, err := s.transport.Listen(s.config, p)
	if err != nil {
		p.Close()
		return nil, err
	}

	if s.config.MetricsEndpoint != "" {
		ms, err := startMetricsServer(s.config.MetricsEndpoint, s.config.LogLevel == "debug", s.metrics)
		if err != nil {
			_ = s.transport.Shutdown()
			p.Close()
			return nil, err
		}
		s.metricsServer = ms
	}

	if interval := s.config.StatsInterval(); interval > 0 {
		s.stopStats = make(chan struct{})
		go p.ReportStats(interval, s.stopStats)
	}

	s.pool = p
	s.addr = addr
	s.started = true

	Logger.Infof("tKV server listening on %s with %d workers", addr, s.config.Workers)
	return addr, nil
}

// Serve initializes the loggers, starts the server and blocks until SIGINT
// or SIGTERM is received. The server is shut down before Serve returns.
func (s *Server) Serve() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	Logger.Infof("%s", s.config.String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if _, err := s.Start(); err != nil {
		return err
	}

	sig := <-sigCh
	Logger.Infof("Received %s, shutting down", sig)

	return s.Shutdown()
}

// Shutdown stops accepting connections, closes all open connections and waits
// until the worker pool has drained. Calling it more than once is a no-op.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error

	// listener and open sockets first, this unblocks every worker
	if err := s.transport.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	s.pool.Close()

	if s.stopStats != nil {
		close(s.stopStats)
	}

	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		if err := s.metricsServer.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
		cancel()
	}

	Logger.Infof("tKV server stopped (%s)", s.pool.Stats())
	return errors.Join(errs...)
}

// Addr returns the address of the command listener, nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// MetricsAddr returns the address of the metrics endpoint, nil if disabled
func (s *Server) MetricsAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metricsServer == nil {
		return nil
	}
	return s.metricsServer.addr()
}

// Store returns the store shared by all connections
func (s *Server) Store() store.IStore {
	return s.store
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// registerTransportHandler installs the function that answers every command.
// Parse + Apply answers exactly like store.Execute, the parsed kind labels the metrics.
func (s *Server) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		start := time.Now()

		cmd, err := command.Parse(string(req))
		if err != nil {
			s.metrics.observe(commandInvalid, err, start)
			Logger.Debugf("rejected request: %v", err)
			return common.FormatResponse("", err)
		}

		result, err := s.store.Apply(cmd)
		s.metrics.observe(cmd.Kind.String(), err, start)
		return common.FormatResponse(result, err)
	})
}
