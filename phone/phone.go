// Package phone canonicalizes, validates and matches employee phone
// numbers. Canonical form (whitespace and bracket/dash punctuation
// stripped) is the storage and lookup key; the match form additionally
// drops country-code and leading-zero variance and is never stored.
package phone

import (
	"regexp"
	"strings"
)

type Mode string

const (
	// ModeStrict accepts Pakistani mobile numbers only.
	ModeStrict Mode = "strict"
	// ModeFlexible accepts any international number of 7 to 15 digits.
	ModeFlexible Mode = "flexible"
)

var patterns = map[Mode]*regexp.Regexp{
	ModeStrict:   regexp.MustCompile(`^(\+92|92|0)?3[0-9]{9}$`),
	ModeFlexible: regexp.MustCompile(`^\+?[0-9]{7,15}$`),
}

var punct = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Canonicalize strips surrounding whitespace and the characters
// ' ', '-', '(' and ')'. Idempotent.
func Canonicalize(raw string) string {
	return punct.Replace(strings.TrimSpace(raw))
}

// Validate reports whether raw matches the pattern for mode. An
// unrecognized mode falls back to flexible.
func Validate(raw string, mode Mode) bool {
	pattern, ok := patterns[mode]
	if !ok {
		pattern = patterns[ModeFlexible]
	}
	return pattern.MatchString(raw)
}

// NormalizeForMatch reduces a phone to its country-code-agnostic core
// so that differently prefixed spellings of one number compare equal.
// A matching aid only: it neither validates nor produces storage keys.
func NormalizeForMatch(raw string) string {
	p := Canonicalize(raw)
	switch {
	case strings.HasPrefix(p, "+92"):
		return p[3:]
	case strings.HasPrefix(p, "92") && len(p) > 10:
		return p[2:]
	case strings.HasPrefix(p, "0"):
		return p[1:]
	}
	return p
}
