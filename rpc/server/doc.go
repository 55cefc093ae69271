// Package server wires the tKV server together: one shared store, a fixed
// size worker pool and a transport that turns every accepted connection into
// one pool job.
//
// For every command the transport reads, the server parses it, applies it to
// the store and answers with "OK: <result>" or "ERR: <message>". Parse errors
// and missing keys are answered on the same connection, the connection stays
// open.
//
// Optionally the server exposes Prometheus metrics (VictoriaMetrics) on a
// separate HTTP endpoint and logs worker pool statistics periodically.
package server
