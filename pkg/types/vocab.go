// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cefr-vocab pipelines.
// The extraction stage produces WordEntry values; the enrichment stage turns
// each WordEntry into zero or more SenseRecord rows.
package types

import (
	"fmt"
	"strings"
)

// CEFRLevel is a Common European Framework of Reference proficiency tag.
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"

	// LevelUnspecified is assigned to scraped senses that carry no level
	// attribute at all.
	LevelUnspecified CEFRLevel = "NOT SPECIFIED"
)

// Levels lists the valid CEFR levels in ascending order.
var Levels = []CEFRLevel{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether l is one of A1..C2.
func (l CEFRLevel) Valid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLevel upper-cases and trims s and validates it as a CEFR level.
func ParseLevel(s string) (CEFRLevel, error) {
	l := CEFRLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid CEFR level %q", s)
	}
	return l, nil
}

// WordEntry is one (word, part-of-speech abbreviation, level) triple found in
// the source document.
type WordEntry struct {
	// Word is the vocabulary item, possibly a variant pair ("colour, color").
	Word string `json:"word" yaml:"word"`

	// PartOfSpeechAbbrev is the abbreviation as printed (e.g. "n.", "adj.").
	PartOfSpeechAbbrev string `json:"part_of_speech" yaml:"part_of_speech"`

	// Level is the CEFR level printed next to the word.
	Level CEFRLevel `json:"cefr_level" yaml:"cefr_level"`
}

// LevelSource records where a scraped sense's level came from.
type LevelSource int

const (
	// LevelFromNone means the sense had neither level attribute.
	LevelFromNone LevelSource = iota
	// LevelFromPrimary means the level came from the "cefr" attribute.
	LevelFromPrimary
	// LevelFromSecondary means the level came from the "fkcefr" attribute.
	LevelFromSecondary
)

func (s LevelSource) String() string {
	switch s {
	case LevelFromPrimary:
		return "primary"
	case LevelFromSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Sense is one meaning scraped from a dictionary entry page, before it is
// matched against the WordEntry's level.
type Sense struct {
	Definition string

	// ImageURL is the thumbnail source, nil when the sense has no image.
	ImageURL *string

	// Level is upper-cased; LevelUnspecified when Source is LevelFromNone.
	Level  CEFRLevel
	Source LevelSource
}

// SenseRecord is one output row of the enrichment stage.
type SenseRecord struct {
	Word         string    `json:"word" yaml:"word"`
	PartOfSpeech string    `json:"part_of_speech" yaml:"part_of_speech"`
	Level        CEFRLevel `json:"cefr_level" yaml:"cefr_level"`
	Definition   string    `json:"definition" yaml:"definition"`
	ImageURL     *string   `json:"image,omitempty" yaml:"image,omitempty"`
}

// Image returns the image URL or the empty string.
func (r SenseRecord) Image() string {
	if r.ImageURL == nil {
		return ""
	}
	return *r.ImageURL
}
