// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textnorm holds the string normalization shared by the duplicate
// detector, the cross-reference resolver and the classifier. Every function
// is total: empty input yields empty output, never a panic.
package textnorm

import (
	"strings"
	"unicode"
)

// Key lowercases and trims s. It is the identity used for exact matching.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Fold lowercases s, replaces every rune that is not a letter or digit with
// a space, and collapses runs of whitespace.
//
//	Fold("Pink Tower (Extension)!") // "pink tower extension"
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripTrailingParenthetical removes one trailing "(...)" clause.
//
// Only a clause that closes the string is removed; "Pink (large) Tower" is
// returned unchanged. Unbalanced parentheses are left alone.
func StripTrailingParenthetical(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasSuffix(t, ")") {
		return t
	}
	depth := 0
	for i := len(t) - 1; i >= 0; i-- {
		switch t[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return strings.TrimSpace(t[:i])
			}
		}
	}
	return t
}

// Words splits s into lowercase alphanumeric words of at least minLen runes.
// Order is preserved and duplicates are kept.
func Words(s string, minLen int) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		w := current.String()
		if len([]rune(w)) >= minLen {
			words = append(words, w)
		}
		current.Reset()
	}
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// HasWord reports whether word appears in s as a whole word, case-insensitive.
func HasWord(s, word string) bool {
	word = strings.ToLower(word)
	for _, w := range Words(s, 1) {
		if w == word {
			return true
		}
	}
	return false
}

// RemoveWord drops every whole-word occurrence of word from s and returns
// the folded remainder.
func RemoveWord(s, word string) string {
	word = strings.ToLower(word)
	var kept []string
	for _, w := range strings.Fields(Fold(s)) {
		if w != word {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// CountOccurrences counts non-overlapping occurrences of needle in haystack.
// An empty needle counts as zero.
func CountOccurrences(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}
