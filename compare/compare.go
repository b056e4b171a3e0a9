// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package compare finds reference words that a speaker altered or skipped by
// aligning the reference text with the recognized transcript.
package compare

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// MinWordLength is the shortest flagged word that is reported.
const MinWordLength = 3

// nonWord keeps letters, digits, underscore and whitespace. Combining marks
// (\p{M}) are not word characters: a decomposed accent splits its word.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Stopwords are never reported as mispronounced.
var Stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "of": {},
	"is": {}, "are": {}, "was": {}, "were": {},
}

// Tokenize lowercases text, replaces punctuation with spaces and splits it
// into words.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, " ")
	return strings.Fields(text)
}

// FindMismatches returns the reference words that the recognized text replaced
// or dropped, in order of first occurrence and without duplicates.
func FindMismatches(referenceText, recognizedText string) []string {
	ref := Tokenize(referenceText)
	rec := Tokenize(recognizedText)

	flagged := flag(ref, rec)

	result := make([]string, 0, len(flagged))
	seen := make(map[string]struct{}, len(flagged))
	for _, w := range flagged {
		if _, stop := Stopwords[w]; stop {
			continue
		}
		if utf8.RuneCountInString(w) < MinWordLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		result = append(result, w)
	}

	return result
}

// flag walks the edit script between ref and rec. Inside a replace run the
// reference words are paired by offset with the recognized words; reference
// words past the end of the recognized run are flagged unconditionally.
func flag(ref, rec []string) []string {
	var flagged []string

	matcher := difflib.NewMatcher(ref, rec)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r':
			recLen := op.J2 - op.J1
			for i := op.I1; i < op.I2; i++ {
				offset := i - op.I1
				if offset < recLen {
					if ref[i] != rec[op.J1+offset] {
						flagged = append(flagged, ref[i])
					}
				} else {
					flagged = append(flagged, ref[i])
				}
			}
		case 'd':
			flagged = append(flagged, ref[op.I1:op.I2]...)
		}
	}

	return flagged
}
