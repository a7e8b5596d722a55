// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cefr-vocab/internal/dictionary"
	"github.com/pdiddy/cefr-vocab/internal/httputil"
)

const bankPage = `<html><body>
<h1 class="headword">bank</h1><span class="pos">noun</span>
<ol>
  <li class="sense" cefr="a1"><span class="def">a place that keeps money</span></li>
  <li class="sense" cefr="b2"><span class="def">the side of a river</span><img class="thumb" src="https://dict.test/media/riverbank.png"></li>
  <li class="sense" fkcefr="b2"><span class="def">a slope of earth</span></li>
  <li class="sense"><span class="def">a row of switches</span></li>
</ol></body></html>`

const runPage = `<html><body>
<h1 class="headword">run</h1><span class="pos">verb</span>
<ol><li class="sense" cefr="a1"><span class="def">to move fast on foot</span></li></ol>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeResolver serves canned entry pages keyed by "word|pos".
type fakeResolver struct {
	pages map[string]string
	err   map[string]error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, word, pos string) (*dictionary.Entry, error) {
	key := word + "|" + pos
	f.calls = append(f.calls, key)
	if err := f.err[key]; err != nil {
		return nil, err
	}
	html, ok := f.pages[key]
	if !ok {
		return nil, nil
	}
	u, _ := url.Parse("https://dict.test/definition/english/" + word)
	return dictionary.ParseEntry(u, []byte(html), dictionary.RouteSearch)
}

// countingThrottle never sleeps.
type countingThrottle struct {
	waits int
	err   error
}

func (c *countingThrottle) Wait(context.Context) error {
	c.waits++
	return c.err
}

type fakeSaver struct {
	saved []string
	err   error
}

func (f *fakeSaver) Save(_ context.Context, word, pos string, n int, imageURL string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.saved = append(f.saved, imageURL)
	return word + ".png", false, nil
}

const input = "Word,Part of Speech,CEFR Level\n" +
	"bank,n.,B2\n" +
	"run,v.,A1\n"

func TestRunKeepsOnlyMatchingLevel(t *testing.T) {
	res := &fakeResolver{pages: map[string]string{"bank|noun": bankPage, "run|verb": runPage}}
	throttle := &countingThrottle{}
	d := NewDriver(res, WithThrottle(throttle), WithLogger(discardLogger()))

	var out, status bytes.Buffer
	result, err := d.Run(context.Background(), strings.NewReader(input), &out, &status)
	require.NoError(t, err)

	want := "word,part_of_speech,cefr_level,definition,image\n" +
		"bank,noun,B2,the side of a river,https://dict.test/media/riverbank.png\n" +
		"bank,noun,B2,a slope of earth,\n" +
		"run,verb,A1,to move fast on foot,\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, []string{"bank|noun", "run|verb"}, res.calls)
	assert.Equal(t, 2, throttle.waits, "one pause after every word")
	assert.Equal(t, BatchResult{Words: 2, Resolved: 2, SensesSeen: 5, SensesWritten: 3}, result)
	assert.Contains(t, status.String(), "Batch summary: 2 words, 2 resolved (0 via nearby), 0 unresolved, 3 of 5 senses written")
}

func TestRunWritesHeaderForEmptyInput(t *testing.T) {
	d := NewDriver(&fakeResolver{}, WithThrottle(&countingThrottle{}))

	var out bytes.Buffer
	result, err := d.Run(context.Background(), strings.NewReader("Word,Part of Speech,CEFR Level\n"), &out, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "word,part_of_speech,cefr_level,definition,image\n", out.String())
	assert.Zero(t, result.Words)
}

func TestRunUnresolvedWordContinues(t *testing.T) {
	res := &fakeResolver{pages: map[string]string{"run|verb": runPage}}
	d := NewDriver(res, WithThrottle(&countingThrottle{}))

	var out, status bytes.Buffer
	result, err := d.Run(context.Background(), strings.NewReader(input), &out, &status)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Unresolved)
	assert.Equal(t, 1, result.SensesWritten)
	assert.Contains(t, status.String(), "no entry: bank (noun)")
}

// refusingFetcher fails every search for "bank" with a refused connection.
type refusingFetcher struct{}

func (refusingFetcher) Get(_ context.Context, rawURL string, params url.Values) (*httputil.Page, error) {
	if params.Get("q") == "bank" {
		return nil, &url.Error{Op: "Get", URL: rawURL, Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}
	}
	u, _ := url.Parse("https://dict.test/definition/english/run")
	return &httputil.Page{URL: u, Status: http.StatusOK, Body: []byte(runPage)}, nil
}

func TestRunConnectionErrorContinues(t *testing.T) {
	resolver := dictionary.NewResolver(refusingFetcher{}, "https://dict.test/search/", discardLogger())
	throttle := &countingThrottle{}
	d := NewDriver(resolver, WithThrottle(throttle))

	var out bytes.Buffer
	result, err := d.Run(context.Background(), strings.NewReader(input), &out, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Words)
	assert.Equal(t, 1, result.Unresolved)
	assert.Equal(t, 2, throttle.waits)
	assert.Contains(t, out.String(), "run,verb,A1,to move fast on foot,")
}

func TestRunUnmappedAbbreviationPassesThrough(t *testing.T) {
	res := &fakeResolver{}
	d := NewDriver(res, WithThrottle(&countingThrottle{}))

	_, err := d.Run(context.Background(),
		strings.NewReader("Word,Part of Speech,CEFR Level\nhello,interj.,A1\n"), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello|interj."}, res.calls)
}

func TestRunBatchesDoNotChangeOutput(t *testing.T) {
	var rows strings.Builder
	rows.WriteString("Word,Part of Speech,CEFR Level\n")
	for range 7 {
		rows.WriteString("run,v.,A1\n")
	}

	outputs := map[int]string{}
	for _, size := range []int{1, 3, 10} {
		res := &fakeResolver{pages: map[string]string{"run|verb": runPage}}
		d := NewDriver(res, WithThrottle(&countingThrottle{}), WithBatchSize(size))
		var out bytes.Buffer
		result, err := d.Run(context.Background(), strings.NewReader(rows.String()), &out, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 7, result.Words)
		outputs[size] = out.String()
	}
	assert.Equal(t, outputs[1], outputs[3])
	assert.Equal(t, outputs[1], outputs[10])
}

func TestRunMalformedInput(t *testing.T) {
	d := NewDriver(&fakeResolver{}, WithThrottle(&countingThrottle{}))

	_, err := d.Run(context.Background(), strings.NewReader("word,pos\nbank,n.\n"), io.Discard, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Word"`)

	res := &fakeResolver{pages: map[string]string{"run|verb": runPage}}
	d = NewDriver(res, WithThrottle(&countingThrottle{}))
	var out bytes.Buffer
	result, err := d.Run(context.Background(),
		strings.NewReader("Word,Part of Speech,CEFR Level\nrun,v.,A1\nbank,n.\n"), &out, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Equal(t, 1, result.Words, "rows before the bad one are processed")
	assert.Contains(t, out.String(), "run,verb,A1")
}

func TestRunStopsOnCancellation(t *testing.T) {
	res := &fakeResolver{pages: map[string]string{"bank|noun": bankPage, "run|verb": runPage}}
	throttle := &countingThrottle{err: context.Canceled}
	d := NewDriver(res, WithThrottle(throttle))

	result, err := d.Run(context.Background(), strings.NewReader(input), io.Discard, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Words)
	assert.Equal(t, []string{"bank|noun"}, res.calls)
}

func TestRunResolverErrorStops(t *testing.T) {
	res := &fakeResolver{err: map[string]error{"bank|noun": context.DeadlineExceeded}}
	d := NewDriver(res, WithThrottle(&countingThrottle{}))

	_, err := d.Run(context.Background(), strings.NewReader(input), io.Discard, io.Discard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunSavesImages(t *testing.T) {
	res := &fakeResolver{pages: map[string]string{"bank|noun": bankPage, "run|verb": runPage}}
	saver := &fakeSaver{}
	d := NewDriver(res, WithThrottle(&countingThrottle{}), WithImages(saver))

	var status bytes.Buffer
	result, err := d.Run(context.Background(), strings.NewReader(input), io.Discard, &status)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dict.test/media/riverbank.png"}, saver.saved)
	assert.Equal(t, 1, result.ImagesSaved)
	assert.Contains(t, status.String(), "1 images saved")
}

func TestRunImageFailureDoesNotAbort(t *testing.T) {
	res := &fakeResolver{pages: map[string]string{"bank|noun": bankPage, "run|verb": runPage}}
	d := NewDriver(res, WithThrottle(&countingThrottle{}), WithImages(&fakeSaver{err: errors.New("HTTP 404")}))

	result, err := d.Run(context.Background(), strings.NewReader(input), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImagesFailed)
	assert.Equal(t, 3, result.SensesWritten)
}

func TestEnrichFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "words.csv")
	outPath := filepath.Join(dir, "out", "definitions.csv")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o644))

	res := &fakeResolver{pages: map[string]string{"run|verb": runPage}}
	d := NewDriver(res, WithThrottle(&countingThrottle{}))

	result, err := EnrichFile(context.Background(), d, inPath, outPath, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SensesWritten)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "word,part_of_speech,cefr_level,definition,image\nrun,verb,A1,to move fast on foot,\n", string(data))

	_, err = EnrichFile(context.Background(), d, filepath.Join(dir, "missing.csv"), outPath, io.Discard)
	assert.Error(t, err)
}
