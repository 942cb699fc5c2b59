// Package cmdline provides shell-like command line parsing for the tool
// override variables (CRYO_STRIP_CMD, CRYO_UPX_CMD). It follows POSIX word
// splitting rules: quoted arguments, spaces, and escapes.
package cmdline

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted string is not properly closed
	ErrUnclosedQuote = errors.New("unclosed quote in command string")

	// ErrTrailingEscape is returned when a backslash appears at the end of input
	ErrTrailingEscape = errors.New("trailing escape character at end of command")
)

// Split parses a command string into arguments, handling quotes and escapes.
//
// Parsing rules:
//   - Words are separated by whitespace
//   - Single quotes preserve literal values (no escapes)
//   - Double quotes preserve literal values except for backslash escapes
//   - Backslash escapes the next character outside quotes
//   - Empty input returns empty slice
func Split(input string) ([]string, error) {
	if input == "" {
		return []string{}, nil
	}

	var result []string
	var current strings.Builder
	var inSingle, inDouble bool
	var sawQuotes bool // empty quoted strings still form a word

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\\' && !inSingle {
			if i+1 >= len(runes) {
				return nil, ErrTrailingEscape
			}
			i++
			next := runes[i]
			if inDouble {
				// Inside double quotes only a few characters are escapable
				switch next {
				case '"', '\\', '$', '`':
					current.WriteRune(next)
				default:
					current.WriteRune('\\')
					current.WriteRune(next)
				}
			} else {
				current.WriteRune(next)
			}
			continue
		}

		if ch == '\'' && !inDouble {
			if inSingle {
				sawQuotes = true
			}
			inSingle = !inSingle
			continue
		}

		if ch == '"' && !inSingle {
			if inDouble {
				sawQuotes = true
			}
			inDouble = !inDouble
			continue
		}

		if unicode.IsSpace(ch) && !inSingle && !inDouble {
			if current.Len() > 0 || sawQuotes {
				result = append(result, current.String())
				current.Reset()
				sawQuotes = false
			}
			continue
		}

		current.WriteRune(ch)
	}

	if inSingle || inDouble {
		quoteType := "single"
		if inDouble {
			quoteType = "double"
		}
		return nil, fmt.Errorf("%w: unclosed %s quote", ErrUnclosedQuote, quoteType)
	}

	if current.Len() > 0 || sawQuotes {
		result = append(result, current.String())
	}

	return result, nil
}

// Join combines arguments into a command string, quoting as necessary.
func Join(args []string) string {
	if len(args) == 0 {
		return ""
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}

	needsQuote := false
	for _, ch := range arg {
		if unicode.IsSpace(ch) || ch == '\'' || ch == '"' || ch == '\\' || ch == '$' || ch == '`' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return arg
	}

	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}

	var result strings.Builder
	result.WriteRune('"')
	for _, ch := range arg {
		if ch == '"' || ch == '\\' || ch == '$' || ch == '`' {
			result.WriteRune('\\')
		}
		result.WriteRune(ch)
	}
	result.WriteRune('"')
	return result.String()
}
