// Package transport defines the interfaces between the tKV server and client
// logic and the network layer.
//
// Key Components:
//
//   - IRPCServerTransport: Accepts connections, turns each one into a job for
//     an IExecutor (the worker pool) and calls a ServerHandleFunc for every
//     command read from the connection.
//
//   - IRPCClientTransport: Sends request lines to one or more servers and
//     returns the response lines.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// The base package implements both sides independent of the socket type,
// the tcp package adds the TCP specific connectors.
package transport
