// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/cefr-vocab/internal/container"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// TextSource serves pages from plain text in which pages are separated by
// form feeds, the layout pdftotext produces.
type TextSource struct {
	pages []string
}

// NewTextSource splits text into pages on form feed. A trailing form feed
// does not create an empty final page.
func NewTextSource(text string) *TextSource {
	text = strings.TrimSuffix(text, "\f")
	if text == "" {
		return &TextSource{}
	}
	return &TextSource{pages: strings.Split(text, "\f")}
}

func (s *TextSource) NumPages() int { return len(s.pages) }

func (s *TextSource) PageText(i int) (string, error) {
	if i < 1 || i > len(s.pages) {
		return "", fmt.Errorf("page %d out of range (1..%d)", i, len(s.pages))
	}
	return s.pages[i-1], nil
}

// PDFSource reads page text straight from a PDF file.
type PDFSource struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenPDF opens the PDF at path. Close releases the file.
func OpenPDF(path string) (*PDFSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	return &PDFSource{file: f, reader: r}, nil
}

func (s *PDFSource) NumPages() int { return s.reader.NumPage() }

// PageText rebuilds the page's lines from positioned text runs. Pages
// without content yield "".
func (s *PDFSource) PageText(i int) (string, error) {
	page := s.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		// Some content streams defeat row grouping; plain text still
		// carries the words.
		return page.GetPlainText(nil)
	}
	var b strings.Builder
	for _, row := range rows {
		line := joinRow(row.Content)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// joinRow concatenates the runs of one row left to right, inserting a space
// where the gap between runs is wider than a fraction of the font size.
func joinRow(runs pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	end := 0.0
	for i, t := range sorted {
		if i > 0 && t.X-end > 0.2*t.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return strings.TrimSpace(b.String())
}

// Close releases the underlying file.
func (s *PDFSource) Close() error {
	return s.file.Close()
}

// ContainerSource runs pdftotext in a container and serves its form-feed
// separated output.
type ContainerSource struct {
	*TextSource
}

// pdftotextCommand reads the PDF from stdin and writes text to stdout,
// keeping the physical layout so columns stay on one line.
var pdftotextCommand = []string{"pdftotext", "-layout", "-", "-"}

// NewContainerSource converts the PDF at path with image through rt.
func NewContainerSource(ctx context.Context, rt container.Runtime, image, path string) (*ContainerSource, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := rt.Run(ctx, image, pdftotextCommand, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return &ContainerSource{TextSource: NewTextSource(out.String())}, nil
}

// Open returns the page source for path according to cfg.Backend. The
// returned close function is always non-nil.
func Open(ctx context.Context, cfg types.ExtractionConfig, path string) (PageSource, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case types.BackendNative, "":
		src, err := OpenPDF(path)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil

	case types.BackendText:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, noop, fmt.Errorf("reading %s: %w", path, err)
		}
		return NewTextSource(string(data)), noop, nil

	case types.BackendContainer:
		rt, err := container.Detect()
		if err != nil {
			return nil, noop, err
		}
		image := cfg.ContainerImage
		if image == "" {
			image = types.DefaultContainerImage
		}
		src, err := NewContainerSource(ctx, rt, image, path)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown extraction backend %q", cfg.Backend)
	}
}
