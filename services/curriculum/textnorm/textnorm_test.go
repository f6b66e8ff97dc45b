// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"punctuation", "Pink Tower (Extension)!", "pink tower extension"},
		{"whitespace", "  Brown   Stair\t", "brown stair"},
		{"hyphen", "Three-Part Cards", "three part cards"},
		{"digits", "Teen Board 11-19", "teen board 11 19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestStripTrailingParenthetical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pink Tower (Extension)", "Pink Tower"},
		{"Pink Tower", "Pink Tower"},
		{"Pink (large) Tower", "Pink (large) Tower"},
		{"Bead Chains (Short (Squared))", "Bead Chains"},
		{"Broken )", "Broken )"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripTrailingParenthetical(tt.in), "input %q", tt.in)
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"red", "rods", "set"}, Words("Red rods (set of 10)", 3))
	assert.Nil(t, Words("", 3))
	assert.Equal(t, []string{"a", "b"}, Words("a-b", 1))
}

func TestHasWordAndRemoveWord(t *testing.T) {
	assert.True(t, HasWord("Introduction to Fractions", "introduction"))
	assert.False(t, HasWord("Reintroductions", "introduction"))
	assert.Equal(t, "to fractions", RemoveWord("Introduction to Fractions", "introduction"))
	assert.Equal(t, "", RemoveWord("Introduction", "introduction"))
}

func TestCountOccurrences(t *testing.T) {
	assert.Equal(t, 2, CountOccurrences("pour water, then pour rice", "pour"))
	assert.Equal(t, 0, CountOccurrences("anything", ""))
}
