// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds word / part-of-speech / CEFR-level triples in the
// text of a vocabulary list document and writes them as CSV.
package extract

import (
	"fmt"
	"iter"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// triplePattern matches "<word>[, <word>] <pos-abbrev> <level>", for example
// "colour, color n. A1" or "about prep. A1". Whitespace includes NEL, the
// information separators and the Unicode spaces that PDF text layers emit.
// The pattern's \b only knows ASCII word characters; Matches enforces the
// Unicode boundary.
var triplePattern = regexp.MustCompile(
	`\b([a-zA-Z]+(?:, [a-zA-Z]+)?)` + spaceClass + `+([a-zA-Z.]+)` + spaceClass + `+(A[12]|B[12]|C[12])\b`,
)

const spaceClass = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// Matches returns every triple in text, left to right, without overlap. A
// match touching a letter, digit or underscore on either side ("naïve",
// "A1é") is part of a longer token and is skipped.
func Matches(text string) []types.WordEntry {
	var entries []types.WordEntry
	for pos := 0; pos < len(text); {
		loc := triplePattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			loc[i] += pos
		}
		start, end := loc[0], loc[1]
		if !tokenEdge(text, start) || !tokenEdge(text, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		entries = append(entries, types.WordEntry{
			Word:               text[loc[2]:loc[3]],
			PartOfSpeechAbbrev: text[loc[4]:loc[5]],
			Level:              types.CEFRLevel(text[loc[6]:loc[7]]),
		})
		pos = end
	}
	return entries
}

// tokenEdge reports whether offset i of text lies between a word rune and a
// non-word rune, counting every Unicode letter and number as a word rune.
func tokenEdge(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = wordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = wordRune(r)
	}
	return before != after
}

func wordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// PageSource exposes the text of a document one page at a time.
type PageSource interface {
	// NumPages returns the number of pages in the document.
	NumPages() int

	// PageText returns the text of page i, counting from 1.
	PageText(i int) (string, error)
}

// Scan lazily yields the triples of every page in document order. A page
// that cannot be read stops the sequence with an error.
func Scan(src PageSource) iter.Seq2[types.WordEntry, error] {
	return func(yield func(types.WordEntry, error) bool) {
		for i := 1; i <= src.NumPages(); i++ {
			text, err := src.PageText(i)
			if err != nil {
				yield(types.WordEntry{}, fmt.Errorf("reading page %d: %w", i, err))
				return
			}
			if text == "" {
				continue
			}
			for _, e := range Matches(text) {
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

// Collect drains Scan into a slice.
func Collect(src PageSource) ([]types.WordEntry, error) {
	var entries []types.WordEntry
	for e, err := range Scan(src) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
