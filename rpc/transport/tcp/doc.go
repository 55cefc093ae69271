// Package tcp provides the TCP connectors for the base transport package.
//
// Key Components:
//
//   - serverConnector: listens on a TCP endpoint and applies TCP_NODELAY,
//     keep-alive and linger settings to every accepted connection.
//
//   - clientConnector: dials TCP endpoints (with the client timeout) and
//     applies the same socket options.
//
// See the base package for framing, pooling and retry behavior.
package tcp
