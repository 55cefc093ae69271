package command

import (
	"errors"
	"testing"
	"unicode/utf8"
)

// TestParseValid tests lines that must parse successfully
func TestParseValid(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Command
	}{
		{
			name:     "Basic get",
			line:     "get some_key",
			expected: NewGet("some_key"),
		},
		{
			name:     "Get with surrounding and repeated spaces",
			line:     "     GET          some_key       ",
			expected: NewGet("some_key"),
		},
		{
			name:     "Get with quoted key",
			line:     `get "some key"`,
			expected: NewGet("some key"),
		},
		{
			name:     "Get with quoted key containing many spaces",
			line:     `get "some    key  with spaces"`,
			expected: NewGet("some    key  with spaces"),
		},
		{
			name:     "Get with quoted key and padding",
			line:     `     GET          "some key"       `,
			expected: NewGet("some key"),
		},
		{
			name:     "Get with trailing newline",
			line:     "get some_key\r\n",
			expected: NewGet("some_key"),
		},
		{
			name:     "Get with empty quoted key",
			line:     `get ""`,
			expected: NewGet(""),
		},
		{
			name:     "Basic set",
			line:     "set some_key some_value",
			expected: NewSet("some_key", "some_value"),
		},
		{
			name:     "Set with mixed case verb and padding",
			line:     "     SET          some_key    some_value   ",
			expected: NewSet("some_key", "some_value"),
		},
		{
			name:     "Set with quoted key and value",
			line:     `set "some key" "some value"`,
			expected: NewSet("some key", "some value"),
		},
		{
			name:     "Set with quoted arguments and wide gaps",
			line:     `SET    "some key"       "some value"`,
			expected: NewSet("some key", "some value"),
		},
		{
			name:     "Set preserves spaces inside quotes",
			line:     `set "some    key  with spaces" " some value with   spaces"   `,
			expected: NewSet("some    key  with spaces", " some value with   spaces"),
		},
		{
			name:     "Set with long quoted value",
			line:     `set "programming language" "The Go Programming Language"`,
			expected: NewSet("programming language", "The Go Programming Language"),
		},
		{
			name:     "Basic del",
			line:     "del some_key",
			expected: NewDel("some_key"),
		},
		{
			name:     "Del with mixed case verb",
			line:     "DeL some_key",
			expected: NewDel("some_key"),
		},
		{
			name:     "Tabs are part of a bare word",
			line:     "set a\tb c",
			expected: NewSet("a\tb", "c"),
		},
		{
			name:     "Character after closing quote is consumed as separator",
			line:     `get "a"b`,
			expected: NewGet("a"),
		},
		{
			name:     "Multibyte character after closing quote is consumed whole",
			line:     `get "a"é`,
			expected: NewGet("a"),
		},
		{
			name:     "Multibyte separator keeps following token intact",
			line:     `set "a"éb`,
			expected: NewSet("a", "b"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q) returned unexpected error: %v", tt.line, err)
			}
			if cmd != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, cmd, tt.expected)
			}
		})
	}
}

// TestParseErrors tests that malformed lines are rejected with the exact wire messages
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    ErrorKind
		message string
	}{
		{"Empty line", "", ErrCommandNotProvided, "Command not provided"},
		{"Only spaces", "     ", ErrCommandNotProvided, "Command not provided"},
		{"Unknown verb", "unknown", ErrInvalidCommand, "Invalid command"},
		{"Unknown verb with argument", "unknown some_key", ErrInvalidCommand, "Invalid command"},
		{"Get without key", "get ", ErrMissingArgument, "Expected argument {key}"},
		{"Get with extra argument", "get some_key some_value", ErrUnexpectedArgument, "Unexpected argument some_value"},
		{"Get with unterminated quote", `get "some key`, ErrExpectedStringTermination, "Expected string termination"},
		{"Get with quote inside word", `get som"e`, ErrUnexpectedStringInitializer, "Unexpected string initializer"},
		{"Del without key", "del", ErrMissingArgument, "Expected argument {key}"},
		{"Del with extra argument", "del a b", ErrUnexpectedArgument, "Unexpected argument b"},
		{"Set without arguments", "set", ErrMissingArgument, "Expected argument {key}"},
		{"Set without value", `set "some key"`, ErrMissingArgument, "Expected argument {value}"},
		{"Set with extra argument", "set a b c d", ErrUnexpectedArgument, "Unexpected argument c"},
		{"Set with unterminated key", `set "some key`, ErrExpectedStringTermination, "Expected string termination"},
		{"Set with unterminated value", `set "some key" "some value  `, ErrExpectedStringTermination, "Expected string termination"},
		{"Set with quote inside key", `set som"e`, ErrUnexpectedStringInitializer, "Unexpected string initializer"},
		{"Set with quote inside value", `set some_key some"value`, ErrUnexpectedStringInitializer, "Unexpected string initializer"},
		{"Tokenizer error wins over unknown verb", `foo "bar`, ErrExpectedStringTermination, "Expected string termination"},
		{"Unexpected argument keeps quoted content", `get a "b c"`, ErrUnexpectedArgument, "Unexpected argument b c"},
		{"Unexpected argument after multibyte separator", `get "a"ébc`, ErrUnexpectedArgument, "Unexpected argument bc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got nil", tt.line)
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if parseErr.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, parseErr.Kind)
			}
			if err.Error() != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, err.Error())
			}
			if !utf8.ValidString(err.Error()) {
				t.Errorf("Expected valid UTF-8 message, got %q", err.Error())
			}
		})
	}
}

// TestCommandString tests that encoded commands parse back to themselves
func TestCommandString(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected string
	}{
		{"Plain get", NewGet("lang"), "get lang"},
		{"Get with spaces", NewGet("a b"), `get "a b"`},
		{"Set with spaces in value", NewSet("a", "c d e"), `set a "c d e"`},
		{"Set with empty value", NewSet("a", ""), `set a ""`},
		{"Del with leading space", NewDel(" x"), `del " x"`},
		{"Set with trailing no-break space", NewSet("k", "v\u00a0"), "set k \"v\u00a0\""},
		{"Set with trailing vertical tab", NewSet("k", "v\v"), "set k \"v\v\""},
		{"Get with trailing form feed", NewGet("key\f"), "get \"key\f\""},
		{"Get with leading em space", NewGet("\u2003key"), "get \"\u2003key\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.command.String()
			if line != tt.expected {
				t.Errorf("String() = %q, want %q", line, tt.expected)
			}

			parsed, err := Parse(line)
			if err != nil {
				t.Fatalf("Parse(%q) returned unexpected error: %v", line, err)
			}
			if parsed != tt.command {
				t.Errorf("Parse(String()) = %+v, want %+v", parsed, tt.command)
			}
		})
	}
}

// TestCommandValidate tests which arguments can be encoded
func TestCommandValidate(t *testing.T) {
	if err := NewSet("a b", "c d").Validate(); err != nil {
		t.Errorf("Expected valid command, got %v", err)
	}
	if err := NewSet("a", `say "hi"`).Validate(); err == nil {
		t.Error("Expected error for value containing a quote")
	}
	if err := NewGet("a\nb").Validate(); err == nil {
		t.Error("Expected error for key containing a line break")
	}
}
