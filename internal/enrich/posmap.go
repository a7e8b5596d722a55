// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// POSTable maps part-of-speech abbreviations, as printed in the word list,
// to the labels the dictionary uses.
type POSTable map[string]string

// DefaultPOSTable returns the built-in abbreviation table.
func DefaultPOSTable() POSTable {
	return POSTable{
		"n.":      "noun",
		"pron.":   "pronoun",
		"v.":      "verb",
		"adj.":    "adjective",
		"prep.":   "preposition",
		"adv.":    "adverb",
		"conj.":   "conjunction",
		"exclam.": "exclamation",
		"article": "article",
		"number":  "number",
		"det.":    "determiner",
		"marker":  "marker",
		"at":      "at",
	}
}

// Expand returns the label for abbrev, or abbrev itself when unmapped.
func (t POSTable) Expand(abbrev string) string {
	if full, ok := t[abbrev]; ok {
		return full
	}
	return abbrev
}

// LoadPOSTable reads a YAML mapping of abbreviation to label from path and
// layers it over the built-in table. An empty path returns the built-in
// table unchanged.
func LoadPOSTable(path string) (POSTable, error) {
	table := DefaultPOSTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading part-of-speech map: %w", err)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing part-of-speech map %s: %w", path, err)
	}
	for k, v := range extra {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("part-of-speech map %s: empty label for %q", path, k)
		}
	}
	maps.Copy(table, extra)
	return table, nil
}
