// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "it", "s", "me"}, Tokenize("Hello,  World! It's me..."))
	assert.Equal(t, []string{"привет", "мир"}, Tokenize("Привет, мир!"))
	assert.Equal(t, []string{"snake_case", "42"}, Tokenize("snake_case -42-"))
	assert.Empty(t, Tokenize(" ,.!? "))
	// a decomposed accent is a combining mark and separates words
	assert.Equal(t, []string{"cafe", "au"}, Tokenize("Cafe\u0301 au"))
	assert.Equal(t, []string{"café"}, Tokenize("Caf\u00e9"))
}

func TestFindMismatches(t *testing.T) {
	tests := []struct {
		name       string
		reference  string
		recognized string
		want       []string
	}{
		{"ReplaceAndDeleteStopword", "The cat sat on the mat", "the cat sit on mat", []string{"sat"}},
		{"Punctuation", "Hello world, hello friends!", "hello word hello fiends", []string{"world", "friends"}},
		{"Deletes", "quick brown fox jumps", "quick fox", []string{"brown", "jumps"}},
		{"ReplaceLongerReference", "alpha beta gamma delta", "alpha zeta", []string{"beta", "gamma", "delta"}},
		{"ReplaceLongerRecognized", "one two three four five", "one six seven eight nine ten eleven", []string{"two", "three", "four", "five"}},
		{"EmptyRecognized", "reading writing", "", []string{"reading", "writing"}},
		{"InsertIgnored", "apple banana cherry", "banana cherry apple", []string{"apple"}},
		{"Identical", "Speak clearly and slowly.", "speak clearly and slowly", []string{}},
		{"ShortWordsFiltered", "go up by me", "went down bye you", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMismatches(tt.reference, tt.recognized))
		})
	}
}

func TestFindMismatches_Deduplicates(t *testing.T) {
	got := FindMismatches(
		"Peter Piper picked peppers, Peter Piper picked",
		"peter pepper picked peppers peter paper picked",
	)
	assert.Equal(t, []string{"piper"}, got)
}

func TestFindMismatches_SubsetOfReference(t *testing.T) {
	reference := "The rain in Spain stays mainly in the plain, the rain!"
	recognized := "a rein in spine stays manly on plane the rain"

	got := FindMismatches(reference, recognized)

	tokens := make(map[string]bool)
	for _, w := range Tokenize(reference) {
		tokens[w] = true
	}
	seen := make(map[string]bool)
	for _, w := range got {
		assert.True(t, tokens[w], "%q is not a reference word", w)
		assert.False(t, seen[w], "%q reported twice", w)
		seen[w] = true
	}

	assert.Equal(t, got, FindMismatches(reference, recognized))
}
