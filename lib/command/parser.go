package command

import (
	"strings"
	"unicode/utf8"
)

// Parse converts one request line into a Command.
//
// The line is trimmed, split into tokens and the first token selects the verb
// (case-insensitive). Tokens are separated by spaces; a token starting with a
// double quote runs until the next double quote and may contain spaces. There
// is no escape syntax. The returned error is always a *ParseError.
func Parse(line string) (Command, error) {
	tokens, err := tokenize(strings.TrimSpace(line))
	if err != nil {
		return Command{}, err
	}

	if len(tokens) == 0 {
		return Command{}, newParseError(ErrCommandNotProvided, "")
	}

	verb, args := tokens[0], tokens[1:]

	switch strings.ToLower(verb) {
	case "get":
		key, err := keyOnly(args)
		if err != nil {
			return Command{}, err
		}
		return NewGet(key), nil
	case "set":
		key, value, err := keyValue(args)
		if err != nil {
			return Command{}, err
		}
		return NewSet(key, value), nil
	case "del":
		key, err := keyOnly(args)
		if err != nil {
			return Command{}, err
		}
		return NewDel(key), nil
	default:
		return Command{}, newParseError(ErrInvalidCommand, "")
	}
}

// --------------------------------------------------------------------------
// Arity checks
// --------------------------------------------------------------------------

func keyOnly(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", newParseError(ErrMissingArgument, "key")
	case 1:
		return strings.Clone(args[0]), nil
	default:
		return "", newParseError(ErrUnexpectedArgument, args[1])
	}
}

func keyValue(args []string) (string, string, error) {
	switch len(args) {
	case 0:
		return "", "", newParseError(ErrMissingArgument, "key")
	case 1:
		return "", "", newParseError(ErrMissingArgument, "value")
	case 2:
		return strings.Clone(args[0]), strings.Clone(args[1]), nil
	default:
		return "", "", newParseError(ErrUnexpectedArgument, args[2])
	}
}

// --------------------------------------------------------------------------
// Tokenizer
// --------------------------------------------------------------------------

// tokenize splits an already trimmed line into its tokens.
// The character directly following a token is always consumed as separator.
func tokenize(s string) ([]string, error) {
	var tokens []string

	for {
		// skip the run of spaces in front of the next token
		start := strings.IndexFunc(s, func(r rune) bool { return r != ' ' })
		if start < 0 {
			break
		}
		s = s[start:]

		token, end, err := nextToken(s)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)

		if end >= len(s) {
			break
		}
		// the separator is one character, which may be several bytes long
		_, size := utf8.DecodeRuneInString(s[end:])
		s = s[end+size:]
	}

	return tokens, nil
}

// nextToken reads the token at the beginning of s and returns it together
// with the index of the first byte after the token.
func nextToken(s string) (string, int, error) {
	// Case quoted literal: runs until the next quote
	if s[0] == '"' {
		closing := strings.IndexByte(s[1:], '"')
		if closing < 0 {
			return "", 0, newParseError(ErrExpectedStringTermination, "")
		}
		return s[1 : closing+1], closing + 2, nil
	}

	// Case bare word: runs until the next space, a quote must not start inside it
	end := strings.IndexAny(s, ` "`)
	if end < 0 {
		return s, len(s), nil
	}
	if s[end] == '"' {
		return "", 0, newParseError(ErrUnexpectedStringInitializer, "")
	}
	return s[:end], end, nil
}
