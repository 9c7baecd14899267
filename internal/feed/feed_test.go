package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
%s
</channel>
</rss>`

func rssItem(title, desc, link, guid string) string {
	return fmt.Sprintf(`<item>
<title>%s</title>
<description>%s</description>
<link>%s</link>
<guid>%s</guid>
</item>`, title, desc, link, guid)
}

func TestFetchArticleWithBody(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>First paragraph.</p><p>Second paragraph.</p></article></body></html>`))
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		item := rssItem("Test Event", "A short description", srv.URL+"/article", srv.URL+"/article#0")
		fmt.Fprintf(w, rssTemplate, item)
	})

	r := NewReader(srv.URL+"/rss", time.Second)
	articles, err := r.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Test Event" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.ID != srv.URL+"/article" {
		t.Errorf("guid fragment not stripped: %q", a.ID)
	}
	if !strings.Contains(a.Content, "First paragraph.\n\nSecond paragraph.") {
		t.Errorf("body paragraphs missing from content: %q", a.Content)
	}
	if !strings.HasPrefix(a.Content, "Title: Test Event") {
		t.Errorf("content should lead with the title: %q", a.Content)
	}
}

func TestFetchTextBlockFallback(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<div data-component="text-block">Block one.</div>
<div data-component="text-block">Block two.</div>
</body></html>`))
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		item := rssItem("T", "D", srv.URL+"/article", "id-1")
		fmt.Fprintf(w, rssTemplate, item)
	})

	r := NewReader(srv.URL+"/rss", time.Second)
	articles, err := r.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(articles[0].Content, "Block one.\n\nBlock two.") {
		t.Errorf("text-block fallback not used: %q", articles[0].Content)
	}
}

func TestFetchPageFailureFallsBackToDescription(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		item := rssItem("T", "The description", srv.URL+"/article", "id-1")
		fmt.Fprintf(w, rssTemplate, item)
	})

	r := NewReader(srv.URL+"/rss", time.Second)
	articles, err := r.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("page failure must not fail the run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if !strings.Contains(articles[0].Content, "The description") {
		t.Errorf("expected description fallback, got %q", articles[0].Content)
	}
}

func TestFetchLimit(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>Text.</p></article></body></html>`))
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		var items strings.Builder
		for i := 0; i < 5; i++ {
			items.WriteString(rssItem(fmt.Sprintf("Item %d", i), "d", srv.URL+"/a", fmt.Sprintf("id-%d", i)))
		}
		fmt.Fprintf(w, rssTemplate, items.String())
	})

	r := NewReader(srv.URL+"/rss", time.Second)
	articles, err := r.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Item 0" || articles[1].Title != "Item 1" {
		t.Errorf("feed order not preserved: %q, %q", articles[0].Title, articles[1].Title)
	}
}

func TestFetchFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewReader(srv.URL, time.Second)
	_, err := r.Fetch(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for failing feed")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected *FetchError, got %T", err)
	}
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, rssTemplate, "")
	}))
	defer srv.Close()

	r := NewReader(srv.URL, time.Second)
	if _, err := r.Fetch(context.Background(), 1); err == nil {
		t.Error("expected error for empty feed")
	}
}

func TestExtractBodyLayers(t *testing.T) {
	articleHTML := []byte(`<html><body><article><p>In article.</p></article></body></html>`)
	if got := extractBody(articleHTML, "http://example.com/a"); got != "In article." {
		t.Errorf("article selector: got %q", got)
	}

	blockHTML := []byte(`<html><body><div data-component="text-block">In block.</div></body></html>`)
	if got := extractBody(blockHTML, "http://example.com/a"); got != "In block." {
		t.Errorf("text-block selector: got %q", got)
	}

	if got := extractBody([]byte(`<html><body><nav>menu</nav></body></html>`), "http://example.com/a"); got != "" {
		t.Errorf("expected empty extraction, got %q", got)
	}
}
