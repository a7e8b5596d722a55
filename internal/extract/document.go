// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Header is the column row of the extraction CSV.
var Header = []string{"Word", "Part of Speech", "CEFR Level"}

// Result summarises one extraction run.
type Result struct {
	Pages   int
	Matches int
	Written int
}

// WriteCSV writes the header and one row per entry.
func WriteCSV(w io.Writer, entries []types.WordEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Word, e.PartOfSpeechAbbrev, string(e.Level)}); err != nil {
			return fmt.Errorf("writing row for %q: %w", e.Word, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Extract collects the triples of src, orders them by mode and writes the
// CSV to w. A document without matches produces a header-only CSV.
func Extract(src PageSource, mode types.OrderMode, w io.Writer) (Result, error) {
	entries, err := Collect(src)
	if err != nil {
		return Result{}, err
	}
	ordered, err := Order(entries, mode)
	if err != nil {
		return Result{}, err
	}
	if err := WriteCSV(w, ordered); err != nil {
		return Result{}, err
	}
	return Result{Pages: src.NumPages(), Matches: len(entries), Written: len(ordered)}, nil
}

// ExtractToFile runs Extract into a temporary file next to outPath and
// renames it into place on success, so a failed run never leaves a
// truncated CSV behind.
func ExtractToFile(src PageSource, mode types.OrderMode, outPath string, log io.Writer) (Result, error) {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".extract-*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	res, runErr := Extract(src, mode, tmp)
	closeErr := tmp.Close()
	if runErr != nil {
		os.Remove(tmpPath)
		return Result{}, runErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("renaming temp file: %w", err)
	}

	fmt.Fprintf(log, "extracted: %d pages, %d matches, %d rows written to %s\n",
		res.Pages, res.Matches, res.Written, outPath)
	return res, nil
}
