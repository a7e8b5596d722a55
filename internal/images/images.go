// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images saves sense thumbnails into a local directory.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

const defaultExt = ".png"

// Getter streams a URL into w. httputil.Session satisfies it.
type Getter interface {
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Downloader writes thumbnails under Dir.
type Downloader struct {
	get Getter
	dir string
	log *slog.Logger
}

// New returns a Downloader saving into dir.
func New(get Getter, dir string, logger *slog.Logger) *Downloader {
	return &Downloader{get: get, dir: dir, log: logger.With("component", "images")}
}

// Dir returns the target directory.
func (d *Downloader) Dir() string { return d.dir }

// Save downloads imageURL as the n-th image of word/pos. An existing file
// is left alone and reported as skipped.
func (d *Downloader) Save(ctx context.Context, word, pos string, n int, imageURL string) (dest string, skipped bool, err error) {
	dest = filepath.Join(d.dir, FileName(word, pos, n, imageURL))
	if _, err := os.Stat(dest); err == nil {
		d.log.DebugContext(ctx, "image exists", slog.String("path", dest))
		return dest, true, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", d.dir, err)
	}

	tmpFile, err := os.CreateTemp(d.dir, ".image-*.tmp")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := d.get.Download(ctx, imageURL, tmpFile)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("downloading %s: %w", imageURL, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("renaming temp file: %w", err)
	}
	d.log.DebugContext(ctx, "image saved", slog.String("path", dest))
	return dest, false, nil
}

// FileName builds "<word>_<pos>_<n><ext>" with unsafe characters replaced.
// The extension comes from the URL path and defaults to .png.
func FileName(word, pos string, n int, imageURL string) string {
	ext := defaultExt
	if u, err := url.Parse(imageURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); len(e) > 1 && len(e) <= 5 && safe(e[1:]) {
			ext = e
		}
	}
	return fmt.Sprintf("%s_%s_%d%s", slug(word), slug(pos), n, ext)
}

// slug keeps letters, digits and hyphens, turning every other run into "_".
func slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

func safe(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
