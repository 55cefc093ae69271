// Package command defines the requests understood by tKV and the parser that
// turns a raw request line into one of them.
//
// Grammar (verbs are case-insensitive):
//
//	GET <key>
//	SET <key> <value>
//	DEL <key>
//
// Arguments are separated by spaces. An argument that contains spaces must be
// wrapped in double quotes ("some key"). Quotes cannot appear inside a bare
// word and there is no escape syntax, so a double quote can never be part of
// a key or value.
//
// Errors:
//
//	Parse returns a *ParseError whose Kind identifies the failure. The text
//	returned by Error() is part of the wire protocol and is sent to clients
//	verbatim (e.g. "Expected argument {key}").
//
// Command.String encodes a command back into a request line and is used by
// the client to build requests.
package command
