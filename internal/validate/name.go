package validate

import "strings"

const maxNameWords = 3

// Name validates a person's name and returns it with whitespace collapsed.
//
// Accepted shapes include "First Last", "Last, First" and "Last, First M.".
// Letters, space, hyphen, comma, period and straight or curly apostrophes are
// allowed. A name has at most three words, and within a word each of
// - ' ’ , may appear at most once.
func Name(raw string) (string, error) {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "<script>") || strings.Contains(lower, "string") {
		return "", reject(FieldName, "contains prohibited substrings")
	}

	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", reject(FieldName, "name is required")
	}
	for _, r := range name {
		if !nameRune(r) {
			return "", reject(FieldName, "contains invalid characters")
		}
	}

	words := strings.Fields(name)
	if len(words) > maxNameWords {
		return "", reject(FieldName, "exceeds maximum number of words (3)")
	}
	for _, word := range words {
		for _, special := range []string{"-", "'", "’", ","} {
			if strings.Count(word, special) > 1 {
				return "", reject(FieldName, "multiple special characters in a word")
			}
		}
	}
	return name, nil
}

func nameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == ' ', r == '-', r == ',', r == '\'', r == '’', r == '.':
		return true
	}
	return false
}
