package utils

import "strings"

// SplitList splits a list written as "a, b; c" or one item per line.
// Blank items are dropped and the rest are trimmed.
func SplitList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		switch r {
		case ',', ';', '\n':
			return true
		default:
			return false
		}
	})

	result := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			result = append(result, f)
		}
	}
	return result
}

// FlattenList applies SplitList to every element, so repeated flags and
// comma-separated values can be mixed.
func FlattenList(items []string) []string {
	var result []string
	for _, item := range items {
		result = append(result, SplitList(item)...)
	}
	return result
}
