package command

import "fmt"

// ErrorKind enumerates the reasons a request line can be rejected.
type ErrorKind uint8

const (
	ErrCommandNotProvided          ErrorKind = iota // 0: The line contains no tokens.
	ErrInvalidCommand                               // 1: The first token is not a known verb.
	ErrMissingArgument                              // 2: Fewer arguments than the verb requires.
	ErrUnexpectedArgument                           // 3: More arguments than the verb accepts.
	ErrExpectedStringTermination                    // 4: A quoted token has no closing quote.
	ErrUnexpectedStringInitializer                  // 5: A quote appears inside a bare word.
)

func (k ErrorKind) String() string {
	switch k {
	case ErrCommandNotProvided:
		return "CommandNotProvided"
	case ErrInvalidCommand:
		return "InvalidCommand"
	case ErrMissingArgument:
		return "MissingArgument"
	case ErrUnexpectedArgument:
		return "UnexpectedArgument"
	case ErrExpectedStringTermination:
		return "ExpectedStringTermination"
	case ErrUnexpectedStringInitializer:
		return "UnexpectedStringInitializer"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// ParseError is returned by Parse. Its Error() text is sent to clients verbatim,
// so the messages must stay stable.
type ParseError struct {
	Kind ErrorKind
	// Detail is the argument name for ErrMissingArgument
	// and the offending token for ErrUnexpectedArgument.
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrCommandNotProvided:
		return "Command not provided"
	case ErrInvalidCommand:
		return "Invalid command"
	case ErrMissingArgument:
		return fmt.Sprintf("Expected argument {%s}", e.Detail)
	case ErrUnexpectedArgument:
		return fmt.Sprintf("Unexpected argument %s", e.Detail)
	case ErrExpectedStringTermination:
		return "Expected string termination"
	case ErrUnexpectedStringInitializer:
		return "Unexpected string initializer"
	default:
		return "Unknown parse error"
	}
}

func newParseError(kind ErrorKind, detail string) *ParseError {
	return &ParseError{Kind: kind, Detail: detail}
}
