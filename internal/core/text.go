package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanText strips leading and trailing whitespace and collapses every inner
// run of whitespace to a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HasAlphanumeric reports whether s contains at least one letter or digit.
func HasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Truncate caps s at max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// NormalizeNote is the stored form of a note.
func NormalizeNote(s string) string {
	return CleanText(s)
}

// ValidateNote accepts an empty note. A note that is only whitespace or only
// symbols is rejected, as is one longer than MaxNoteLength.
func ValidateNote(s string) error {
	if s == "" {
		return nil
	}
	cleaned := CleanText(s)
	if cleaned == "" {
		return ErrEmptyNote
	}
	if !HasAlphanumeric(cleaned) {
		return ErrSymbolOnlyNote
	}
	if utf8.RuneCountInString(cleaned) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// NormalizeName trims a user supplied account or category name.
func NormalizeName(s string) string {
	return CleanText(s)
}
