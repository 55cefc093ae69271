package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tKV/lib/store/lstore"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/transport/tcp"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// startTestServer starts a server on a random local port and shuts it down when the test ends
func startTestServer(t *testing.T, modify func(c *common.ServerConfig)) (*Server, string) {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Workers = 4
	config.LogLevel = "error"
	if modify != nil {
		modify(&config)
	}

	s, err := NewServer(config, tcp.NewTCPServerTransport())
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	addr, err := s.Start()
	if err != nil {
		t.Fatalf("Start returned unexpected error: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Shutdown(); err != nil {
			t.Errorf("Shutdown returned unexpected error: %v", err)
		}
	})

	return s, addr.String()
}

// testConn is a raw client connection
type testConn struct {
	net.Conn
	reader *bufio.Reader
}

// dial opens a raw TCP connection to the server
func dial(t *testing.T, addr string) *testConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testConn{Conn: conn, reader: bufio.NewReader(conn)}
}

// send writes raw bytes and reads one response line
func (c *testConn) send(t *testing.T, req string) string {
	t.Helper()
	if _, err := c.Write([]byte(req)); err != nil {
		t.Fatalf("Failed to write %q: %v", req, err)
	}
	return c.readLine(t)
}

// readLine reads one response line including the delimiter
func (c *testConn) readLine(t *testing.T) string {
	t.Helper()
	if err := c.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return line
}

// expectClosed waits until the server closed the connection
func (c *testConn) expectClosed(t *testing.T, within time.Duration) {
	t.Helper()
	if err := c.SetReadDeadline(time.Now().Add(within)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, err := c.reader.ReadByte()
	if err == nil {
		t.Fatal("Expected connection to be closed, but received data")
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("Connection was not closed within %s", within)
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestNewServerInvalidConfig(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Workers = 0
	if _, err := NewServer(config, tcp.NewTCPServerTransport()); err == nil {
		t.Error("Expected error for zero workers")
	}
}

func TestSession(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn := dial(t, addr)

	steps := []struct {
		req      string
		expected string
	}{
		{"set lang go", "OK: Key 'lang' set to 'go'\n"},
		{"get lang", "OK: go\n"},
		{"set lang c", "OK: Updated key 'lang' from 'go' to 'c'\n"},
		{"del lang", "OK: Previous value: 'c'\n"},
		{"get lang", "ERR: None\n"},
	}

	for _, step := range steps {
		if got := conn.send(t, step.req); got != step.expected {
			t.Errorf("%q: expected %q, got %q", step.req, step.expected, got)
		}
	}
}

func TestResponsesMatchStoreExecute(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn := dial(t, addr)

	// the same lines run against a local store must produce the same answers
	local := lstore.NewLocalStore()

	lines := []string{
		"get k",
		"set k v",
		`SET "a b" "c d"`,
		"get \"a b\"",
		"set k w",
		"del k",
		"del k",
		"   \n",
		"foo",
		"get",
		"set k",
		"get a b",
		`get "open`,
		`get x"y`,
		`get "a"ébc`,
	}

	for _, line := range lines {
		expected := string(common.FormatResponse(local.Execute(line)))
		if got := conn.send(t, line); got != expected {
			t.Errorf("Request %q: expected %q, got %q", line, expected, got)
		}
	}
}

func TestErrorsKeepConnectionOpen(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn := dial(t, addr)

	steps := []struct {
		req      string
		expected string
	}{
		{"foo bar", "ERR: Invalid command\n"},
		{"get", "ERR: Expected argument {key}\n"},
		{"set k", "ERR: Expected argument {value}\n"},
		{"get a b", "ERR: Unexpected argument b\n"},
		{`get "open`, "ERR: Expected string termination\n"},
		{`set k ab"c`, "ERR: Unexpected string initializer\n"},
		{"   ", "ERR: Command not provided\n"},
		{"del missing", "ERR: None\n"},
		{"SET k v\r\n", "OK: Key 'k' set to 'v'\n"},
		{"GeT k\n", "OK: v\n"},
	}

	for _, step := range steps {
		if got := conn.send(t, step.req); got != step.expected {
			t.Errorf("%q: expected %q, got %q", step.req, step.expected, got)
		}
	}
}

func TestQuotedArguments(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn := dial(t, addr)

	if got := conn.send(t, `set "programming language" "The Go Programming Language"`); got != "OK: Key 'programming language' set to 'The Go Programming Language'\n" {
		t.Errorf("Unexpected set response %q", got)
	}
	if got := conn.send(t, `get "programming language"`); got != "OK: The Go Programming Language\n" {
		t.Errorf("Unexpected get response %q", got)
	}
}

func TestStoreSharedAcrossConnections(t *testing.T) {
	s, addr := startTestServer(t, nil)

	a := dial(t, addr)
	b := dial(t, addr)

	if got := a.send(t, "set shared 1"); got != "OK: Key 'shared' set to '1'\n" {
		t.Fatalf("Unexpected set response %q", got)
	}
	if got := b.send(t, "get shared"); got != "OK: 1\n" {
		t.Errorf("Expected second connection to see the value, got %q", got)
	}
	if s.Store().Len() != 1 {
		t.Errorf("Expected 1 key, got %d", s.Store().Len())
	}
}

func TestConcurrentClients(t *testing.T) {
	s, addr := startTestServer(t, func(c *common.ServerConfig) { c.Workers = 8 })

	const numClients = 20
	const opsPerClient = 50

	var wg sync.WaitGroup
	wg.Add(numClients)
	errCh := make(chan error, numClients)

	for i := 0; i < numClients; i++ {
		go func(clientID int) {
			defer wg.Done()

			conn, err := net.DialTimeout("tcp", addr, time.Second)
			if err != nil {
				errCh <- err
				return
			}
			defer conn.Close()
			reader := bufio.NewReader(conn)
			_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

			roundTrip := func(req string) (string, error) {
				if _, err := conn.Write([]byte(req)); err != nil {
					return "", err
				}
				return reader.ReadString('\n')
			}

			for j := 0; j < opsPerClient; j++ {
				key := fmt.Sprintf("client-%d-key-%d", clientID, j)
				if _, err := roundTrip(fmt.Sprintf("set %s %d", key, j)); err != nil {
					errCh <- err
					return
				}
				got, err := roundTrip("get " + key)
				if err != nil {
					errCh <- err
					return
				}
				if want := fmt.Sprintf("OK: %d\n", j); got != want {
					errCh <- fmt.Errorf("client %d: expected %q, got %q", clientID, want, got)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}

	if n := s.Store().Len(); n != numClients*opsPerClient {
		t.Errorf("Expected %d keys, got %d", numClients*opsPerClient, n)
	}
}

func TestSaturatedPoolQueuesConnections(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.Workers = 1 })

	// the first connection occupies the only worker
	first := dial(t, addr)
	if got := first.send(t, "set k v"); got != "OK: Key 'k' set to 'v'\n" {
		t.Fatalf("Unexpected response %q", got)
	}

	second := dial(t, addr)
	if _, err := second.Write([]byte("get k")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	// no worker is free, the request stays unanswered
	_ = second.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := second.reader.ReadByte(); !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("Expected no response while the pool is saturated, got err=%v", err)
	}

	// releasing the worker lets the queued connection run
	first.Close()

	if got := second.readLine(t); got != "OK: v\n" {
		t.Errorf("Expected queued connection to be served, got %q", got)
	}
}

func TestLineFraming(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) {
		c.Framing = common.FramingLine
		c.BufferSize = 32
	})
	conn := dial(t, addr)

	t.Run("MultipleCommandsPerWrite", func(t *testing.T) {
		if _, err := conn.Write([]byte("set a 1\nset b 2\nget a\n")); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		expected := []string{
			"OK: Key 'a' set to '1'\n",
			"OK: Key 'b' set to '2'\n",
			"OK: 1\n",
		}
		for _, want := range expected {
			if got := conn.readLine(t); got != want {
				t.Errorf("Expected %q, got %q", want, got)
			}
		}
	})

	t.Run("CommandSplitAcrossWrites", func(t *testing.T) {
		if _, err := conn.Write([]byte("get ")); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if got := conn.send(t, "b\n"); got != "OK: 2\n" {
			t.Errorf("Expected %q, got %q", "OK: 2\n", got)
		}
	})

	t.Run("LineTooLong", func(t *testing.T) {
		long := "set key " + strings.Repeat("x", 100) + "\n"
		if got := conn.send(t, long); got != "ERR: Command too long\n" {
			t.Errorf("Expected too long error, got %q", got)
		}
		// the connection is still usable
		if got := conn.send(t, "get a\n"); got != "OK: 1\n" {
			t.Errorf("Expected %q, got %q", "OK: 1\n", got)
		}
	})
}

func TestIdleTimeout(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.IdleTimeoutSecond = 1 })
	conn := dial(t, addr)

	if got := conn.send(t, "set k v"); got != "OK: Key 'k' set to 'v'\n" {
		t.Fatalf("Unexpected response %q", got)
	}

	conn.expectClosed(t, 3*time.Second)
}

func TestRateLimit(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.RateLimit = 5 })
	conn := dial(t, addr)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if got := conn.send(t, "get missing"); got != "ERR: None\n" {
			t.Fatalf("Unexpected response %q", got)
		}
	}

	// 5 commands pass immediately (burst), the other 5 at 5 per second
	if elapsed := time.Since(start); elapsed < 800*time.Millisecond {
		t.Errorf("Expected rate limiting to slow down the client, 10 commands took %s", elapsed)
	}
}

func TestShutdownClosesConnections(t *testing.T) {
	config := common.DefaultServerConfig()
	config.LogLevel = "error"
	s, err := NewServer(config, tcp.NewTCPServerTransport())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	addr, err := s.Start()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	conn := dial(t, addr.String())
	if got := conn.send(t, "set k v"); got != "OK: Key 'k' set to 'v'\n" {
		t.Fatalf("Unexpected response %q", got)
	}

	done := make(chan error, 1)
	go func() { done <- s.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Shutdown returned unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown did not return while a client was connected")
	}

	conn.expectClosed(t, time.Second)

	if c, err := net.DialTimeout("tcp", addr.String(), 200*time.Millisecond); err == nil {
		c.Close()
		t.Error("Expected new connections to be refused after shutdown")
	}

	// second shutdown is a no-op
	if err := s.Shutdown(); err != nil {
		t.Errorf("Second Shutdown returned unexpected error: %v", err)
	}
}

func TestClientDisconnectFreesWorker(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.Workers = 1 })

	for i := 0; i < 5; i++ {
		conn := dial(t, addr)
		if got := conn.send(t, fmt.Sprintf("set k%d v", i)); !strings.HasPrefix(got, "OK: ") {
			t.Fatalf("Connection %d: unexpected response %q", i, got)
		}
		conn.Close()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, addr := startTestServer(t, func(c *common.ServerConfig) { c.MetricsEndpoint = "127.0.0.1:0" })
	conn := dial(t, addr)

	conn.send(t, "set k v")
	conn.send(t, "get k")
	conn.send(t, "get missing")
	conn.send(t, "nonsense")

	metricsAddr := s.MetricsAddr()
	if metricsAddr == nil {
		t.Fatal("Expected metrics endpoint to be enabled")
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + metricsAddr.String() + "/metrics")
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	for _, want := range []string{
		`tkv_commands_total{command="set",result="ok"} 1`,
		`tkv_commands_total{command="get",result="ok"} 1`,
		`tkv_commands_total{command="get",result="not_found"} 1`,
		`tkv_commands_total{command="invalid",result="error"} 1`,
		"tkv_keys 1",
		"tkv_connections_active 1",
		"tkv_connections_accepted_total 1",
		"tkv_pool_workers 4",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}
