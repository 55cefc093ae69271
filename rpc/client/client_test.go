package client

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/server"
	"github.com/ValentinKolb/tKV/rpc/transport/tcp"
)

// newTestClient starts a server on a random local port and returns a connected client
func newTestClient(t *testing.T, connsPerEndpoint int) (*Client, *server.Server) {
	t.Helper()

	serverConfig := common.DefaultServerConfig()
	serverConfig.Workers = 8
	serverConfig.LogLevel = "error"

	s, err := server.NewServer(serverConfig, tcp.NewTCPServerTransport())
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}
	addr, err := s.Start()
	if err != nil {
		t.Fatalf("Start returned unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown() })

	clientConfig := common.ClientConfig{
		TimeoutSecond: 3,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{addr.String()},
			RetryCount:             2,
			ConnectionsPerEndpoint: connsPerEndpoint,
			TCPConf:                common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}

	c, err := NewClient(clientConfig, tcp.NewTCPClientTransport())
	if err != nil {
		t.Fatalf("NewClient returned unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c, s
}

func TestClientCommands(t *testing.T) {
	c, _ := newTestClient(t, 1)

	res, err := c.Set("lang", "go")
	if err != nil {
		t.Fatalf("Set returned unexpected error: %v", err)
	}
	if res != "Key 'lang' set to 'go'" {
		t.Errorf("Unexpected set result %q", res)
	}

	value, err := c.Get("lang")
	if err != nil || value != "go" {
		t.Errorf("Get = (%q, %v), want (\"go\", nil)", value, err)
	}

	res, err = c.Set("lang", "c")
	if err != nil || res != "Updated key 'lang' from 'go' to 'c'" {
		t.Errorf("Set = (%q, %v)", res, err)
	}

	prev, err := c.Delete("lang")
	if err != nil || prev != "c" {
		t.Errorf("Delete = (%q, %v), want (\"c\", nil)", prev, err)
	}

	if _, err := c.Get("lang"); !store.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
	if _, err := c.Delete("lang"); !store.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestClientQuotesArguments(t *testing.T) {
	c, s := newTestClient(t, 1)

	if _, err := c.Set("a b", "c d e"); err != nil {
		t.Fatalf("Set returned unexpected error: %v", err)
	}

	value, err := c.Get("a b")
	if err != nil || value != "c d e" {
		t.Errorf("Get = (%q, %v), want (\"c d e\", nil)", value, err)
	}

	// the empty value survives encoding as well
	if _, err := c.Set("empty", ""); err != nil {
		t.Fatalf("Set returned unexpected error: %v", err)
	}
	value, err = c.Get("empty")
	if err != nil || value != "" {
		t.Errorf("Get = (%q, %v), want (\"\", nil)", value, err)
	}

	if s.Store().Len() != 2 {
		t.Errorf("Expected 2 keys on the server, got %d", s.Store().Len())
	}
}

func TestClientKeepsSurroundingWhitespace(t *testing.T) {
	c, _ := newTestClient(t, 1)

	for _, key := range []string{"key\f", "\u2003key", "k\v"} {
		value := key + "\u00a0"
		if _, err := c.Set(key, value); err != nil {
			t.Fatalf("Set(%q) returned unexpected error: %v", key, err)
		}
		got, err := c.Get(key)
		if err != nil || got != value {
			t.Errorf("Get(%q) = (%q, %v), want (%q, nil)", key, got, err, value)
		}
	}

	// the trimmed key was never written
	if _, err := c.Get("key"); !store.IsNotFound(err) {
		t.Errorf("Expected not found error for trimmed key, got %v", err)
	}
}

func TestClientRejectsUnencodableArguments(t *testing.T) {
	c, s := newTestClient(t, 1)

	if _, err := c.Set(`quo"te`, "v"); err == nil {
		t.Error("Expected error for key with double quote")
	}
	if _, err := c.Set("k", "line\nbreak"); err == nil {
		t.Error("Expected error for value with line break")
	}
	if _, err := c.Exec("get a\nget b"); err == nil {
		t.Error("Expected error for multi line request")
	}

	if s.Store().Len() != 0 {
		t.Errorf("Rejected commands must not reach the server, got %d keys", s.Store().Len())
	}
}

func TestClientExecServerErrors(t *testing.T) {
	c, _ := newTestClient(t, 1)

	tests := []struct {
		line     string
		expected string
	}{
		{"foo", "Invalid command"},
		{"get", "Expected argument {key}"},
		{"set k", "Expected argument {value}"},
		{"del a b", "Unexpected argument b"},
		{`get "open`, "Expected string termination"},
		{"", "Command not provided"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			_, err := c.Exec(tt.line)
			var serverErr *ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("Expected *ServerError, got %T (%v)", err, err)
			}
			if serverErr.Msg != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, serverErr.Msg)
			}
		})
	}

	res, err := c.Exec("SET k v")
	if err != nil || res != "Key 'k' set to 'v'" {
		t.Errorf("Exec = (%q, %v)", res, err)
	}
}

func TestClientConcurrent(t *testing.T) {
	c, s := newTestClient(t, 4)

	const numWorkers = 16
	const opsPerWorker = 50

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	errCh := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("w%d-k%d", workerID, i)
				if _, err := c.Set(key, key); err != nil {
					errCh <- err
					return
				}
				if v, err := c.Get(key); err != nil || v != key {
					errCh <- fmt.Errorf("Get(%s) = (%q, %v)", key, v, err)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}

	if n := s.Store().Len(); n != numWorkers*opsPerWorker {
		t.Errorf("Expected %d keys, got %d", numWorkers*opsPerWorker, n)
	}
}

func TestClientErrorAfterServerShutdown(t *testing.T) {
	c, s := newTestClient(t, 1)

	if _, err := c.Set("k", "v"); err != nil {
		t.Fatalf("Set returned unexpected error: %v", err)
	}

	_ = s.Shutdown()

	if _, err := c.Get("k"); err == nil {
		t.Error("Expected error after server shutdown")
	}
}

func TestNewClientNoEndpoints(t *testing.T) {
	if _, err := NewClient(common.ClientConfig{}, tcp.NewTCPClientTransport()); err == nil {
		t.Error("Expected error without endpoints")
	}
}

func TestPreviousValue(t *testing.T) {
	tests := map[string]string{
		"Previous value: 'v'":     "v",
		"Previous value: ''":      "",
		"Previous value: 'a 'b''": "a 'b'",
		"something else":          "something else",
	}
	for in, want := range tests {
		if got := previousValue(in); got != want {
			t.Errorf("previousValue(%q) = %q, want %q", in, got, want)
		}
	}
}
