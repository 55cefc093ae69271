// Package store provides the interface of the shared key-value map that every
// client connection operates on, together with its error and result vocabulary.
//
// The package focuses on:
//   - A unified interface (IStore) to execute request lines or parsed commands
//   - Structured errors with return codes whose text is still wire compatible
//   - The exact result messages of successful operations
//
// Key Components:
//
//   - IStore Interface: Execute parses a request line with the command package
//     and applies it, Apply runs an already parsed command.Command. Both return
//     the result text on success. On failure the error text is sent to the
//     client verbatim, so a parse error surfaces as e.g. "Invalid command".
//
//   - Error System: Lookup failures are reported as *Error with code
//     RetCNotFound and the message "None". IsNotFound can be used to check for
//     this case without comparing strings.
//
//   - Result Messages: MsgSet, MsgUpdated and MsgDeleted produce the texts
//     returned to clients after "OK: ".
//
// Implementations:
//
//	- Local Store (lstore): a map guarded by a single mutex. One command is
//	  applied at a time, readers and writers alike.
//	  Available in the "github.com/ValentinKolb/tKV/lib/store/lstore" package.
//
// Conformance tests for implementations live in the
// "github.com/ValentinKolb/tKV/lib/store/testing" package.
package store
