// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Dedup removes repeated triples and sorts the rest by word, ignoring case.
// Ties on the folded word fall back to the raw word, then abbreviation, then
// level, so the output does not depend on input order.
func Dedup(entries []types.WordEntry) []types.WordEntry {
	seen := make(map[types.WordEntry]bool, len(entries))
	unique := make([]types.WordEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		unique = append(unique, e)
	}

	slices.SortFunc(unique, func(a, b types.WordEntry) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Word), strings.ToLower(b.Word)),
			cmp.Compare(a.Word, b.Word),
			cmp.Compare(a.PartOfSpeechAbbrev, b.PartOfSpeechAbbrev),
			cmp.Compare(a.Level, b.Level),
		)
	})
	return unique
}

// SortByLevel keeps every triple, including duplicates, and stably sorts by
// level and then word. Equal keys keep document order.
func SortByLevel(entries []types.WordEntry) []types.WordEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b types.WordEntry) int {
		return cmp.Or(
			cmp.Compare(a.Level, b.Level),
			cmp.Compare(a.Word, b.Word),
		)
	})
	return sorted
}

// Order applies the ordering selected by mode.
func Order(entries []types.WordEntry, mode types.OrderMode) ([]types.WordEntry, error) {
	switch mode {
	case types.OrderDedup, "":
		return Dedup(entries), nil
	case types.OrderByLevel:
		return SortByLevel(entries), nil
	default:
		return nil, fmt.Errorf("unknown order mode %q", mode)
	}
}
