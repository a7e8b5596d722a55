// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dictionary

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cefr-vocab/internal/httputil"
	"github.com/pdiddy/cefr-vocab/pkg/types"
)

const bankVerbPage = `<html><body>
<h1 class="headword">bank</h1><span class="pos">verb</span>
<ol><li class="sense" cefr="c1"><span class="def">to keep money in a bank</span></li></ol>
</body></html>`

// fakeDictionary serves a search endpoint that redirects every query for
// "bank" to the noun entry, plus the entries it links to.
func fakeDictionary(t *testing.T, verbHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/english/direct/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "bank":
			http.Redirect(w, r, "/definition/english/bank_1", http.StatusFound)
		case "broken":
			http.Redirect(w, r, "/definition/english/broken_1", http.StatusFound)
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`<html><body><p>No exact match</p></body></html>`))
		}
	})
	mux.HandleFunc("/definition/english/bank_1", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(bankNounPage))
	})
	mux.HandleFunc("/definition/english/bank_3", func(w http.ResponseWriter, _ *http.Request) {
		if verbHits != nil {
			atomic.AddInt32(verbHits, 1)
		}
		w.Write([]byte(bankVerbPage))
	})
	mux.HandleFunc("/definition/english/broken_1", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<h1 class="headword">brake</h1><span class="pos">noun</span>
<div class="responsive_row nearby"><ul class="list-col">
<li><a href="/definition/english/broken_2"><data class="hwd">broken<pos>adjective</pos></data></a></li>
</ul></div>`))
	})
	mux.HandleFunc("/definition/english/broken_2", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResolver(baseURL string, timeout time.Duration) *Resolver {
	session := httputil.NewSession(types.HTTPConfig{
		Timeout: timeout,
		Retry:   types.RetryConfig{BaseDelay: time.Millisecond},
	}, discardLogger())
	return NewResolver(session, baseURL+"/search/english/direct/", discardLogger())
}

func TestResolveDirectMatch(t *testing.T) {
	ts := fakeDictionary(t, nil)
	defer ts.Close()

	entry, err := testResolver(ts.URL, time.Second).Resolve(context.Background(), "bank", "noun")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, RouteSearch, entry.Route)
	assert.Equal(t, "/definition/english/bank_1", entry.URL.Path)
	assert.Len(t, entry.Senses(), 4)
}

func TestResolveFollowsNearbyEntry(t *testing.T) {
	var verbHits int32
	ts := fakeDictionary(t, &verbHits)
	defer ts.Close()

	entry, err := testResolver(ts.URL, time.Second).Resolve(context.Background(), "bank", "verb")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, RouteNearby, entry.Route)
	assert.Equal(t, "/definition/english/bank_3", entry.URL.Path)
	assert.Equal(t, int32(1), atomic.LoadInt32(&verbHits))

	senses := entry.Senses()
	require.Len(t, senses, 1)
	assert.Equal(t, "to keep money in a bank", senses[0].Definition)
	assert.Equal(t, types.LevelC1, senses[0].Level)
}

func TestResolveNoMatch(t *testing.T) {
	ts := fakeDictionary(t, nil)
	defer ts.Close()
	r := testResolver(ts.URL, time.Second)

	tests := []struct {
		name, word, pos string
	}{
		{"mismatch without nearby entry", "bank", "adjective"},
		{"page without heading", "zzyzx", "noun"},
		{"search returns 404", "gone", "noun"},
		{"nearby link returns 404", "broken", "adjective"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := r.Resolve(context.Background(), tc.word, tc.pos)
			require.NoError(t, err)
			assert.Nil(t, entry)
		})
	}
}

func TestResolveAbsorbsConnectionError(t *testing.T) {
	ts := fakeDictionary(t, nil)
	base := ts.URL
	ts.Close()

	entry, err := testResolver(base, time.Second).Resolve(context.Background(), "bank", "noun")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestResolveAbsorbsTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(bankNounPage))
	}))
	defer ts.Close()

	entry, err := testResolver(ts.URL, 20*time.Millisecond).Resolve(context.Background(), "bank", "noun")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestResolveReturnsCancellation(t *testing.T) {
	ts := fakeDictionary(t, nil)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry, err := testResolver(ts.URL, time.Second).Resolve(ctx, "bank", "noun")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, entry)
}
