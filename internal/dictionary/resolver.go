// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dictionary finds the entry page for a word and part of speech on
// an online learner's dictionary and reads its senses.
//
// The search endpoint redirects to its best guess for the query. When that
// page declares a different headword or part of speech, the resolver looks
// for the target in the page's nearby-words list and follows that link.
package dictionary

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/cefr-vocab/internal/httputil"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Fetcher retrieves pages. httputil.Session satisfies it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) (*httputil.Page, error)
}

// Route records how an entry page was reached.
type Route int

const (
	// RouteSearch means the search result page itself matched.
	RouteSearch Route = iota
	// RouteNearby means the entry was reached through the nearby-words list.
	RouteNearby
)

func (r Route) String() string {
	if r == RouteNearby {
		return "nearby"
	}
	return "search"
}

// Entry is an authoritative entry page.
type Entry struct {
	URL   *url.URL
	Doc   *goquery.Document
	Route Route
}

// ParseEntry builds an Entry from HTML served at u.
func ParseEntry(u *url.URL, body []byte, route Route) (*Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", u, err)
	}
	doc.Url = u
	return &Entry{URL: u, Doc: doc, Route: route}, nil
}

// Senses returns the senses on the entry page.
func (e *Entry) Senses() []types.Sense {
	return ExtractSenses(e.Doc)
}

// Resolver looks up entry pages through a dictionary search endpoint.
type Resolver struct {
	fetch     Fetcher
	searchURL string
	log       *slog.Logger
}

// NewResolver returns a Resolver querying searchURL with q=<word>.
func NewResolver(fetch Fetcher, searchURL string, logger *slog.Logger) *Resolver {
	if searchURL == "" {
		searchURL = types.DefaultSearchURL
	}
	return &Resolver{
		fetch:     fetch,
		searchURL: searchURL,
		log:       logger.With("component", "resolver"),
	}
}

// Resolve returns the entry page for word as pos, or nil when none is found.
// Fetch and parse failures are logged and yield nil; only cancellation of
// ctx is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, word, pos string) (*Entry, error) {
	log := r.log.With(slog.String("word", word), slog.String("pos", pos))

	first, err := r.load(ctx, log, r.searchURL, url.Values{"q": {word}}, RouteSearch)
	if first == nil || err != nil {
		return nil, err
	}

	if h, ok := ParseHeading(first.Doc); ok && h.Matches(word, pos) {
		log.DebugContext(ctx, "search result matches", slog.String("url", first.URL.String()))
		return first, nil
	} else if ok {
		log.DebugContext(ctx, "search result differs",
			slog.String("headword", h.Headword), slog.String("declared_pos", h.PartOfSpeech))
	}

	for _, nw := range NearbyWords(first.Doc) {
		if !SameWord(nw.Word, word) || !SamePartOfSpeech(nw.PartOfSpeech, pos) {
			continue
		}
		link, err := first.URL.Parse(nw.Href)
		if err != nil {
			log.WarnContext(ctx, "bad nearby link", slog.String("href", nw.Href), slog.String("error", err.Error()))
			return nil, nil
		}
		log.DebugContext(ctx, "following nearby entry", slog.String("url", link.String()))
		return r.load(ctx, log, link.String(), nil, RouteNearby)
	}

	log.InfoContext(ctx, "no matching entry")
	return nil, nil
}

// load fetches and parses one page. A nil Entry with a nil error means the
// failure was absorbed.
func (r *Resolver) load(ctx context.Context, log *slog.Logger, rawURL string, params url.Values, route Route) (*Entry, error) {
	page, err := r.fetch.Get(ctx, rawURL, params)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case httputil.IsTimeout(err):
		log.ErrorContext(ctx, "request timed out", slog.String("url", rawURL), slog.String("error", err.Error()))
		return nil, nil
	case httputil.IsConnection(err):
		log.ErrorContext(ctx, "connection error", slog.String("url", rawURL), slog.String("error", err.Error()))
		return nil, nil
	default:
		log.ErrorContext(ctx, "fetch failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return nil, nil
	}

	if page.Status != http.StatusOK {
		log.WarnContext(ctx, "unexpected status", slog.String("url", page.URL.String()), slog.Int("status", page.Status))
		return nil, nil
	}

	entry, err := ParseEntry(page.URL, page.Body, route)
	if err != nil {
		log.WarnContext(ctx, "unparseable page", slog.String("error", err.Error()))
		return nil, nil
	}
	return entry, nil
}
