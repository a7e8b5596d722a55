//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract writes a word list CSV for every PDF in data/source.
func Extract() error {
	mg.Deps(Build, Init)

	pdfs, err := filepath.Glob(filepath.Join("data", "source", "*.pdf"))
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		fmt.Println("[extract] No PDFs in data/source.")
		return nil
	}
	for _, pdf := range pdfs {
		out := filepath.Join("data", "words", stem(pdf)+".csv")
		if err := sh.RunV(binPath, "extract", pdf, out); err != nil {
			return fmt.Errorf("extracting %s: %w", pdf, err)
		}
	}
	return nil
}

// Enrich runs enrich for every word list in data/words, caching pages and
// writing a report per list. Set CEFR_VOCAB_IMAGES=1 to download thumbnails.
func Enrich() error {
	mg.Deps(Build, Init)

	lists, err := filepath.Glob(filepath.Join("data", "words", "*.csv"))
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Println("[enrich] No word lists in data/words; run mage extract first.")
		return nil
	}
	for _, list := range lists {
		name := stem(list)
		args := []string{
			"enrich", list, filepath.Join("data", "definitions", name+".csv"),
			"--cache", filepath.Join("data", "cache", "pages.db"),
			"--report", filepath.Join("data", "reports", name+".yaml"),
			"--images-dir", filepath.Join("data", "images"),
		}
		if os.Getenv("CEFR_VOCAB_IMAGES") == "1" {
			args = append(args, "--download-images")
		}
		if err := sh.RunV(binPath, args...); err != nil {
			return fmt.Errorf("enriching %s: %w", list, err)
		}
	}
	return nil
}

// Pipeline runs Extract then Enrich.
func Pipeline() {
	mg.SerialDeps(Extract, Enrich)
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
