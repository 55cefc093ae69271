package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/tKV/lib/command"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface of the shared key-value map.
// Both methods return a human-readable result on success. On failure the error
// text is exactly what is sent to the client after "ERR: ".
type IStore interface {
	// Execute parses a request line and applies it. Parse errors are returned verbatim.
	// This is the entry point for using a store as a library. The server parses
	// on its own to label its metrics and then calls Apply, which answers the
	// same as Execute.
	Execute(line string) (result string, err error)
	// Apply runs an already parsed command.
	Apply(cmd command.Command) (result string, err error)
	// Len returns the number of keys currently stored.
	Len() int
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// NotFoundMsg is the wire text for a missing key
const NotFoundMsg = "None"

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface. Only the message is returned since
// it is part of the protocol.
func (e *Error) Error() string {
	return e.Msg
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// ErrNotFound creates the error returned for reads and deletes of missing keys.
func ErrNotFound() *Error {
	return NewError(RetCNotFound, NotFoundMsg)
}

// IsNotFound reports whether err is a store error with code RetCNotFound.
func IsNotFound(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Code == RetCNotFound
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCNotFound         RetCode = iota + 1 // 1: The key does not exist.
	RetCInvalidOperation                    // 2: The command kind is unknown to the store.
)

func (c RetCode) String() string {
	switch c {
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}

// --------------------------------------------------------------------------
// Result Messages
// --------------------------------------------------------------------------

// MsgSet formats the result of setting a key that did not exist before
func MsgSet(key, value string) string {
	return fmt.Sprintf("Key '%s' set to '%s'", key, value)
}

// MsgUpdated formats the result of overwriting an existing key
func MsgUpdated(key, oldValue, newValue string) string {
	return fmt.Sprintf("Updated key '%s' from '%s' to '%s'", key, oldValue, newValue)
}

// MsgDeleted formats the result of removing a key
func MsgDeleted(value string) string {
	return fmt.Sprintf("Previous value: '%s'", value)
}
