package command

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind defines the possible operations a client can request.
type Kind uint8

const (
	KindGet Kind = iota // Read the value of a key.
	KindSet             // Insert or overwrite the value of a key.
	KindDel             // Remove a key.
)

func (k Kind) String() string {
	switch k {
	case KindGet:
		return "get"
	case KindSet:
		return "set"
	case KindDel:
		return "del"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Command is a single parsed client request.
// Value is only used by KindSet.
type Command struct {
	Kind  Kind
	Key   string
	Value string
}

// NewGet creates a get command for the given key
func NewGet(key string) Command {
	return Command{Kind: KindGet, Key: key}
}

// NewSet creates a set command for the given key and value
func NewSet(key, value string) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// NewDel creates a del command for the given key
func NewDel(key string) Command {
	return Command{Kind: KindDel, Key: key}
}

// String encodes the command as a request line (without trailing newline)
// that Parse turns back into the same command.
// Arguments that are empty or contain spaces are quoted.
func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(quote(c.Key))
	if c.Kind == KindSet {
		sb.WriteByte(' ')
		sb.WriteString(quote(c.Value))
	}
	return sb.String()
}

// Validate checks whether the command can be encoded as a request line.
// The protocol has no escape syntax, so a double quote can never be part of
// an argument, and an argument with leading or trailing blanks only survives
// when it is quoted (which String does).
func (c Command) Validate() error {
	args := []string{c.Key}
	if c.Kind == KindSet {
		args = append(args, c.Value)
	}
	for _, arg := range args {
		if strings.ContainsRune(arg, '"') {
			return fmt.Errorf("argument %q contains a double quote", arg)
		}
		if strings.ContainsAny(arg, "\r\n") {
			return fmt.Errorf("argument %q contains a line break", arg)
		}
	}
	return nil
}

// quote wraps an argument in double quotes if it would not survive tokenizing as a bare word.
// Any whitespace counts, the server trims every kind of it from the ends of a line.
func quote(arg string) string {
	if arg == "" || strings.IndexFunc(arg, unicode.IsSpace) >= 0 {
		return `"` + arg + `"`
	}
	return arg
}
