// Package base implements the client and server transport of tKV independent
// of the socket type. Socket specific behavior (listening, dialing, socket
// options) is injected through the IServerConnector and IClientConnector
// interfaces, see the tcp package.
//
// Server side:
//
//   - The accept loop runs on its own goroutine. Every accepted connection gets
//     a ULID connection id, is registered in a concurrent map of open
//     connections and is handed to the executor (the worker pool) as one job.
//     The job serves the connection until the client disconnects, so a
//     connection occupies one worker for its whole lifetime.
//
//   - Framing "read" treats the bytes of one read as one command (reads are at
//     most the configured buffer size). Framing "line" splits the stream at
//     '\n' and answers lines that do not fit into the buffer with
//     "ERR: Command too long".
//
//   - Optional per-connection limits: an idle timeout (read deadline) and a
//     token bucket rate limiter from golang.org/x/time/rate.
//
//   - Write failures are logged and ignored, only a failing read ends a
//     connection. Shutdown closes the listener and then every open socket.
//
//   - Buffer Pooling: read buffers and line readers are reused through sync.Pool.
//
// Client side:
//
//   - Connection Pooling: several connections per endpoint, selected round
//     robin. Each connection carries one request at a time since the
//     protocol has no request ids.
//
//   - Failed requests are retried with exponential backoff and jitter, broken
//     connections are re-established on the next request.
package base
