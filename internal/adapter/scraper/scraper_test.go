package scraper_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"news-rag/internal/adapter/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fastOptions() scraper.Options {
	return scraper.Options{
		RequestsPerSecond: 1000,
		RequestTimeout:    5 * time.Second,
	}
}

const articlePage = `<!DOCTYPE html>
<html><head><title>Raid Guide - Blizzspirit</title></head><body>
<article>
<h1 class="entry-title">New Raid Guide</h1>
<span class="author-name">Jean</span>
<time datetime="2024-01-12T10:00:00Z">12 janvier 2024</time>
<div class="entry-content">
<script>trackPageView()</script>
<p>The new raid opens next week with eight bosses and a brand new loot system
that rewards consistent attendance across the whole tier. Groups should
prepare consumables in advance.</p>
</div>
</article>
</body></html>`

func TestExtract_ParsesArticleFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	article, err := s.Extract(context.Background(), srv.URL+"/warcraft/raid-guide/")

	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Equal(t, "New Raid Guide", article.Title)
	assert.Equal(t, "Jean", article.Author)
	assert.Contains(t, article.Content, "eight bosses")
	assert.NotContains(t, article.Content, "trackPageView")
	assert.Equal(t, 2024, article.PublishedAt.Year())
	assert.Equal(t, time.January, article.PublishedAt.Month())
	assert.NotEmpty(t, article.ID)
	assert.NotEmpty(t, article.Summary)
}

func TestExtract_NilOnMissingTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="entry-content">body text only, long enough to pass the size gate but with no heading anywhere on the page at all, repeated to be safe.</div></body></html>`)
	}))
	defer srv.Close()

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	article, err := s.Extract(context.Background(), srv.URL+"/news/untitled/")

	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestExtract_NilOnSparseContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 class="entry-title">A valid headline</h1><div class="entry-content">too short</div></body></html>`)
	}))
	defer srv.Close()

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	article, err := s.Extract(context.Background(), srv.URL+"/news/sparse/")

	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestExtract_NilOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	article, err := s.Extract(context.Background(), srv.URL+"/news/broken/")

	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestDiscoverURLs_FromIndexPage(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<article><a href="%s/warcraft/patch-notes/">Patch notes</a></article>
<article><a href="/news/expansion-reveal/">Expansion</a></article>
<article><a href="%s/warcraft/patch-notes/">Duplicate</a></article>
<a href="%s/tag/raids/">Tag page</a>
<a href="%s/wp-content/uploads/banner.jpg">Image</a>
<a href="https://other-site.example/warcraft/offsite/">Offsite</a>
</body></html>`, base, base, base, base)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	urls, err := s.DiscoverURLs(context.Background(), srv.URL, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/warcraft/patch-notes/",
		srv.URL + "/news/expansion-reveal/",
	}, urls)
}

func TestDiscoverURLs_PrefersFeed(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>News</title>
<item><title>One</title><link>%s/warcraft/one/</link></item>
<item><title>Two</title><link>%s/news/two/</link></item>
</channel></rss>`, base, base)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("index page should not be fetched when the feed works")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	urls, err := s.DiscoverURLs(context.Background(), srv.URL, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/warcraft/one/", srv.URL + "/news/two/"}, urls)
}

func TestDiscoverURLs_RespectsMaxCount(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>")
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, `<article><a href="%s/news/item-%d/">Item</a></article>`, base, i)
		}
		fmt.Fprint(w, "</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	urls, err := s.DiscoverURLs(context.Background(), srv.URL, 3)

	require.NoError(t, err)
	assert.Len(t, urls, 3)
}

func TestDiscoverURLs_ErrorWhenIndexUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv.Close() // force connection errors

	s := scraper.New(srv.URL, fastOptions(), testLogger())
	_, err := s.DiscoverURLs(context.Background(), srv.URL, 5)

	assert.Error(t, err)
}
