package stringtools

import (
	"strings"
	"unicode/utf8"
)

// LeftValue returns the first length runes of input
func LeftValue(input string, length int) string {
	if length <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= length {
		return input
	}
	return string([]rune(input)[:length])
}

// CollapseSpaces removes every whitespace rune
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), "")
}
