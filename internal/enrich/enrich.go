// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich turns an extracted word list into dictionary sense rows.
// Words are processed one at a time: each is resolved to an entry page,
// its senses at the word's CEFR level are written immediately, and the
// driver pauses before the next word.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/cefr-vocab/internal/dictionary"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Resolver finds the entry page for a word. A nil Entry with a nil error
// means no page was found. dictionary.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, word, pos string) (*dictionary.Entry, error)
}

// ImageSaver stores sense thumbnails. images.Downloader satisfies it.
type ImageSaver interface {
	Save(ctx context.Context, word, pos string, n int, imageURL string) (dest string, skipped bool, err error)
}

// BatchResult holds the outcome of an enrichment run.
type BatchResult struct {
	Words         int `yaml:"words"`
	Resolved      int `yaml:"resolved"`
	ViaNearby     int `yaml:"via_nearby"`
	Unresolved    int `yaml:"unresolved"`
	SensesSeen    int `yaml:"senses_seen"`
	SensesWritten int `yaml:"senses_written"`
	ImagesSaved   int `yaml:"images_saved"`
	ImagesSkipped int `yaml:"images_skipped"`
	ImagesFailed  int `yaml:"images_failed"`
}

// HasUnresolved reports whether any word had no entry page.
func (r BatchResult) HasUnresolved() bool {
	return r.Unresolved > 0
}

// Driver runs the enrichment loop.
type Driver struct {
	resolver  Resolver
	pos       POSTable
	batchSize int
	throttle  Throttle
	images    ImageSaver
	log       *slog.Logger
}

// Option customises a Driver.
type Option func(*Driver)

// WithPOSTable replaces the built-in abbreviation table.
func WithPOSTable(t POSTable) Option {
	return func(d *Driver) { d.pos = t }
}

// WithBatchSize sets how many input rows are read at a time.
func WithBatchSize(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithThrottle sets the pause taken after each word.
func WithThrottle(t Throttle) Option {
	return func(d *Driver) { d.throttle = t }
}

// WithImages saves the thumbnail of every written sense.
func WithImages(s ImageSaver) Option {
	return func(d *Driver) { d.images = s }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// NewDriver returns a Driver with the built-in POS table, the default batch
// size and the default random delay.
func NewDriver(resolver Resolver, opts ...Option) *Driver {
	d := &Driver{
		resolver:  resolver,
		pos:       DefaultPOSTable(),
		batchSize: types.DefaultBatchSize,
		throttle:  NewRandomDelay(types.DefaultDelayMin, types.DefaultDelayMax, nil),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "enrich")
	return d
}

// Run reads word entries from in and streams matching sense rows to out,
// printing per-word status lines and a summary to status. A failure to
// resolve one word never stops the run; malformed input, write errors and
// cancellation do. The result counts everything processed up to that point.
func (d *Driver) Run(ctx context.Context, in io.Reader, out io.Writer, status io.Writer) (BatchResult, error) {
	var result BatchResult

	reader, err := NewReader(in)
	if err != nil {
		return result, err
	}
	writer, err := NewWriter(out)
	if err != nil {
		return result, err
	}

	for {
		batch, err := reader.Next(d.batchSize)
		for _, entry := range batch {
			if werr := d.processWord(ctx, entry, writer, status, &result); werr != nil {
				d.summary(status, result)
				return result, werr
			}
			if terr := d.throttle.Wait(ctx); terr != nil {
				d.summary(status, result)
				return result, terr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.summary(status, result)
			return result, err
		}
	}

	d.summary(status, result)
	return result, nil
}

func (d *Driver) processWord(ctx context.Context, entry types.WordEntry, writer *Writer, status io.Writer, result *BatchResult) error {
	pos := d.pos.Expand(entry.PartOfSpeechAbbrev)
	result.Words++
	fmt.Fprintf(status, "processing: %s (%s)\n", entry.Word, pos)

	page, err := d.resolver.Resolve(ctx, entry.Word, pos)
	if err != nil {
		return err
	}
	if page == nil {
		result.Unresolved++
		fmt.Fprintf(status, "  no entry: %s (%s)\n", entry.Word, pos)
		return nil
	}
	result.Resolved++
	if page.Route == dictionary.RouteNearby {
		result.ViaNearby++
	}

	senses := page.Senses()
	result.SensesSeen += len(senses)
	written := 0
	for _, s := range senses {
		if s.Level != entry.Level {
			continue
		}
		rec := types.SenseRecord{
			Word:         entry.Word,
			PartOfSpeech: pos,
			Level:        s.Level,
			Definition:   s.Definition,
			ImageURL:     s.ImageURL,
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
		written++
		result.SensesWritten++
		fmt.Fprintf(status, "  written: %s (%s, %s): %s\n", entry.Word, pos, rec.Level, rec.Definition)

		if d.images != nil && rec.ImageURL != nil {
			d.saveImage(ctx, rec, written, result)
		}
	}
	d.log.DebugContext(ctx, "word done",
		slog.String("word", entry.Word), slog.String("pos", pos),
		slog.String("route", page.Route.String()),
		slog.Int("senses", len(senses)), slog.Int("written", written))
	return nil
}

func (d *Driver) saveImage(ctx context.Context, rec types.SenseRecord, n int, result *BatchResult) {
	_, skipped, err := d.images.Save(ctx, rec.Word, rec.PartOfSpeech, n, *rec.ImageURL)
	switch {
	case err != nil:
		result.ImagesFailed++
		d.log.WarnContext(ctx, "image download failed",
			slog.String("word", rec.Word), slog.String("url", *rec.ImageURL), slog.String("error", err.Error()))
	case skipped:
		result.ImagesSkipped++
	default:
		result.ImagesSaved++
	}
}

func (d *Driver) summary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d words, %d resolved (%d via nearby), %d unresolved, %d of %d senses written",
		r.Words, r.Resolved, r.ViaNearby, r.Unresolved, r.SensesWritten, r.SensesSeen)
	if d.images != nil {
		fmt.Fprintf(w, ", %d images saved, %d skipped, %d failed", r.ImagesSaved, r.ImagesSkipped, r.ImagesFailed)
	}
	fmt.Fprintln(w)
}

// EnrichFile runs d from inPath to outPath. The output file is created (or
// truncated) up front and rows are appended as they are produced.
func EnrichFile(ctx context.Context, d *Driver, inPath, outPath string, status io.Writer) (BatchResult, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return BatchResult{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("creating output: %w", err)
	}

	start := time.Now()
	result, runErr := d.Run(ctx, in, out, status)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("closing output: %w", err)
	}
	d.log.InfoContext(ctx, "enrichment finished",
		slog.String("input", inPath), slog.String("output", outPath),
		slog.Int("words", result.Words), slog.Int("senses_written", result.SensesWritten),
		slog.Duration("elapsed", time.Since(start)))
	return result, runErr
}
