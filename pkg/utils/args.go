// Package utils holds small string and path helpers shared by the CLI and
// configuration.
package utils

import (
	"errors"
	"strings"
)

// SplitArgs splits an argument string the way a POSIX shell would for
// simple cases: whitespace separates words, double quotes group and allow
// backslash escapes, single quotes group literally.
func SplitArgs(input string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	escaped := false
	inWord := false

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case quote == '"':
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if escaped {
		return nil, errors.New("unfinished escape sequence in arguments")
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote in arguments")
	}
	if inWord {
		args = append(args, current.String())
	}

	return args, nil
}

// ParseArgs is SplitArgs that returns nil for blank input.
func ParseArgs(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	return SplitArgs(input)
}
