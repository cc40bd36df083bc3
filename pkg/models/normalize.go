package models

import (
	"strings"
	"time"
)

// Shared helpers for the normalization layer. Every NormalizeX function in
// this package is pure, total and idempotent: it never panics, and feeding
// its own output back in returns an identical value.

func trimMax(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		// Cut on a rune boundary so truncation never produces invalid UTF-8.
		runes := []rune(s)
		for len(string(runes)) > max {
			runes = runes[:len(runes)-1]
		}
		s = strings.TrimSpace(string(runes))
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pickEnum restricts value to the allow-set, falling back to def.
func pickEnum(value, def string, allowed ...string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	for _, a := range allowed {
		if value == a {
			return a
		}
	}
	return def
}

// normalizeTimestamp keeps only parseable RFC3339 timestamps, re-encoded in
// UTC. Anything else collapses to the empty string.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp parses a stored timestamp, returning the zero time when the
// value is empty or malformed.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// FormatTimestamp encodes a time the way the state document stores it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
