// Package cmd implements the command-line interface for tKV. It provides
// a command to run the server and a group of client commands to talk to it.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the server (tkv serve <port>) and maps flags and
//     TKV_ environment variables onto the server configuration
//   - kv: Client commands for key-value operations (get, set, del, exec, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See tkv -help for a list of all commands.
package cmd
