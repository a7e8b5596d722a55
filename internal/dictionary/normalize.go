// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dictionary

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC and collapses whitespace runs to single spaces.
// Dictionary markup mixes non-breaking spaces, ligatures and padding newlines
// into headwords; raw equality against CSV input would miss those entries.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// SameWord compares headwords after normalisation. Case is significant:
// "March" and "march" are separate entries.
func SameWord(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// SamePartOfSpeech compares part-of-speech labels after normalisation,
// ignoring case.
func SamePartOfSpeech(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}
