// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// maxBodyBytes caps how much of a page is read into memory.
const maxBodyBytes = 16 << 20

// PageCache stores fetched page bodies keyed by request URL.
type PageCache interface {
	Lookup(ctx context.Context, key string) (finalURL string, body []byte, ok bool, err error)
	Store(ctx context.Context, key, finalURL string, body []byte) error
}

// Page is a fetched response body.
type Page struct {
	// URL is the final URL after redirects; relative links resolve against it.
	URL *url.URL

	Status int
	Body   []byte

	// Cached reports whether the body came from the page cache.
	Cached bool
}

// Session is the reusable client for one run. It sends the configured
// headers on every request, applies the per-request timeout and retries
// the configured statuses.
type Session struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	policy    RetryPolicy
	cache     PageCache
	log       *slog.Logger
}

// Option customises a Session.
type Option func(*Session)

// WithCache makes Get consult and fill c.
func WithCache(c PageCache) Option {
	return func(s *Session) { s.cache = c }
}

// WithTransport replaces the client's transport (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Session) { s.client.Transport = rt }
}

// NewSession builds a Session from cfg. Zero fields take the package
// defaults from types.
func NewSession(cfg types.HTTPConfig, logger *slog.Logger, opts ...Option) *Session {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = types.DefaultUserAgent
	}
	headers := cfg.Headers
	if headers == nil {
		headers = types.DefaultHeaders()
	}

	s := &Session{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		headers:   headers,
		policy:    PolicyFromConfig(cfg.Retry),
		log:       logger.With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches rawURL with params added to its query. Successful (200)
// responses are cached when a cache is configured; cache failures are
// logged and otherwise ignored. Non-200 statuses are returned in the Page,
// not as errors.
func (s *Session) Get(ctx context.Context, rawURL string, params url.Values) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	key := u.String()

	if s.cache != nil {
		finalURL, body, ok, err := s.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "cache lookup failed", slog.String("url", key), slog.String("error", err.Error()))
		case ok:
			final, perr := url.Parse(finalURL)
			if perr == nil {
				s.log.DebugContext(ctx, "cache hit", slog.String("url", key))
				return &Page{URL: final, Status: http.StatusOK, Body: body, Cached: true}, nil
			}
		}
	}

	resp, err := s.do(ctx, key)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	page := &Page{URL: resp.Request.URL, Status: resp.StatusCode, Body: body}
	if s.cache != nil && resp.StatusCode == http.StatusOK {
		if err := s.cache.Store(ctx, key, page.URL.String(), body); err != nil {
			s.log.WarnContext(ctx, "cache store failed", slog.String("url", key), slog.String("error", err.Error()))
		}
	}
	return page, nil
}

// Download streams rawURL into w without touching the cache. Any status
// other than 200 is an error.
func (s *Session) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := s.do(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	r, err := decodedReader(resp)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, r)
}

func (s *Session) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	return DoWithRetry(ctx, s.client, req, s.policy, s.log)
}

// readBody reads the (possibly compressed) body up to maxBodyBytes.
func readBody(resp *http.Response) ([]byte, error) {
	r, err := decodedReader(resp)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(r, maxBodyBytes))
}

// decodedReader undoes Content-Encoding. Setting Accept-Encoding by hand
// turns off net/http's transparent gzip handling, so both gzip and deflate
// are decoded here. Deflate bodies come zlib-wrapped or raw depending on the
// server; the zlib header is sniffed to tell them apart.
func decodedReader(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return zr, nil
	case "deflate":
		br := bufio.NewReader(resp.Body)
		hdr, err := br.Peek(2)
		if err == nil && len(hdr) == 2 && hdr[0]&0x0f == 8 && (uint16(hdr[0])<<8|uint16(hdr[1]))%31 == 0 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("deflate body: %w", err)
			}
			return zr, nil
		}
		return flate.NewReader(br), nil
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsConnection reports whether err is a transport failure other than a
// timeout or caller cancellation: refused or reset connections, DNS
// failures, TLS errors.
func IsConnection(err error) bool {
	if err == nil || IsTimeout(err) || errors.Is(err, context.Canceled) {
		return false
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
