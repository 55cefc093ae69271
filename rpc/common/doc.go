// Package common provides the pieces shared by the tKV server, client and CLI.
//
// The package focuses on:
//   - The line protocol: request encoding and the "OK: " / "ERR: " response lines
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with the Dragonboat logger package
//
// Key Components:
//
//   - FormatResponse/ParseResponse: Encoding and decoding of response lines.
//     Every response is exactly one line terminated by '\n'.
//
//   - ServerConfig: Listener address, worker count, read buffer size, framing
//     mode, per-connection limits, socket options and observability settings.
//     Printed in a sectioned layout at startup.
//
//   - ClientConfig: Endpoints, timeouts, retry and connection pool settings.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logger factory so that every package logger shares one format.
package common
