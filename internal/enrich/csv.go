// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Input columns, as written by the extract command.
const (
	colWord  = "Word"
	colPOS   = "Part of Speech"
	colLevel = "CEFR Level"
)

// OutputHeader is the header row of the enriched CSV.
var OutputHeader = []string{"word", "part_of_speech", "cefr_level", "definition", "image"}

// Reader yields word entries from an extraction CSV in batches.
type Reader struct {
	r                *csv.Reader
	word, pos, level int
	line             int
}

// NewReader reads the header row and locates the required columns by name.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("input is empty: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		// Strip a UTF-8 BOM left by spreadsheet exports.
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	rd := &Reader{r: cr, line: 1}
	for _, c := range []struct {
		name string
		dst  *int
	}{{colWord, &rd.word}, {colPOS, &rd.pos}, {colLevel, &rd.level}} {
		i, ok := idx[c.name]
		if !ok {
			return nil, fmt.Errorf("input header lacks column %q", c.name)
		}
		*c.dst = i
	}
	return rd, nil
}

// Next returns up to n entries. It returns io.EOF, with no entries, once the
// input is exhausted.
func (rd *Reader) Next(n int) ([]types.WordEntry, error) {
	batch := make([]types.WordEntry, 0, n)
	for len(batch) < n {
		rec, err := rd.r.Read()
		if errors.Is(err, io.EOF) {
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}
		rd.line++
		if err != nil {
			return batch, fmt.Errorf("reading input row %d: %w", rd.line, err)
		}
		batch = append(batch, types.WordEntry{
			Word:               strings.TrimSpace(rec[rd.word]),
			PartOfSpeechAbbrev: strings.TrimSpace(rec[rd.pos]),
			Level:              types.CEFRLevel(strings.TrimSpace(rec[rd.level])),
		})
	}
	return batch, nil
}

// Writer appends sense records to the output CSV, flushing after every row
// so rows already written survive an interrupted run.
type Writer struct {
	w *csv.Writer
}

// NewWriter writes the header row.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{w: cw}, nil
}

// Write appends one record.
func (wr *Writer) Write(rec types.SenseRecord) error {
	if err := wr.w.Write([]string{
		rec.Word,
		rec.PartOfSpeech,
		string(rec.Level),
		rec.Definition,
		rec.Image(),
	}); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	wr.w.Flush()
	if err := wr.w.Error(); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}
