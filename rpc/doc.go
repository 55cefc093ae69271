// Package rpc contains the network side of tKV: the text protocol, the
// transports that carry it and the server and client built on top.
//
// The package is organized into several subpackages:
//
//   - common: Protocol framing (OK:/ERR: responses), configuration structures
//     and logger setup shared by server and client.
//
//   - transport: Connection level abstractions. The base package implements
//     the accept loop, per connection handling and client connection reuse,
//     tcp adds the socket options.
//
//   - server: Wires a transport, the worker pool and the store together and
//     serves the optional metrics endpoint.
//
//   - client: A small client for the get, set and del commands with
//     reconnects and retries.
package rpc
