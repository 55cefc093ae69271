package common

import (
	"bytes"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire format
// --------------------------------------------------------------------------

/*
	Requests are single text lines, e.g. `set "a b" c`. Every request is
	answered with exactly one line:

		OK: <result>\n
		ERR: <message>\n
*/

const (
	// RespOKPrefix starts every successful response
	RespOKPrefix = "OK: "
	// RespErrPrefix starts every error response
	RespErrPrefix = "ERR: "
	// Delimiter terminates requests (in line framing) and every response
	Delimiter = '\n'
)

// ErrCommandTooLong is sent when a line does not fit into the read buffer
var ErrCommandTooLong = errors.New("Command too long")

// --------------------------------------------------------------------------
// Response Encoding
// --------------------------------------------------------------------------

// FormatResponse renders the outcome of a command as one response line.
// If err is not nil the result is ignored.
func FormatResponse(result string, err error) []byte {
	if err != nil {
		return AppendResponse(make([]byte, 0, len(RespErrPrefix)+64), result, err)
	}
	return AppendResponse(make([]byte, 0, len(RespOKPrefix)+len(result)+1), result, nil)
}

// AppendResponse appends the response line to dst and returns the extended buffer
func AppendResponse(dst []byte, result string, err error) []byte {
	if err != nil {
		dst = append(dst, RespErrPrefix...)
		dst = append(dst, err.Error()...)
	} else {
		dst = append(dst, RespOKPrefix...)
		dst = append(dst, result...)
	}
	return append(dst, Delimiter)
}

// --------------------------------------------------------------------------
// Response Decoding
// --------------------------------------------------------------------------

// Response is a decoded response line
type Response struct {
	Ok      bool
	Payload string
}

// ParseResponse decodes one response line. The trailing delimiter
// (and a carriage return before it) is optional.
func ParseResponse(line []byte) (Response, error) {
	line = bytes.TrimSuffix(line, []byte{Delimiter})
	line = bytes.TrimSuffix(line, []byte{'\r'})

	switch {
	case bytes.HasPrefix(line, []byte(RespOKPrefix)):
		return Response{Ok: true, Payload: string(line[len(RespOKPrefix):])}, nil
	case bytes.HasPrefix(line, []byte(RespErrPrefix)):
		return Response{Ok: false, Payload: string(line[len(RespErrPrefix):])}, nil
	default:
		return Response{}, fmt.Errorf("malformed response: %q", line)
	}
}

// --------------------------------------------------------------------------
// Request Encoding
// --------------------------------------------------------------------------

// EncodeRequest terminates a request line with the delimiter
func EncodeRequest(line string) []byte {
	req := make([]byte, 0, len(line)+1)
	req = append(req, line...)
	return append(req, Delimiter)
}
