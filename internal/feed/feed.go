// Package feed fetches the news feed and pulls best-effort article bodies.
package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Article is one candidate item from the feed, with extracted body content.
type Article struct {
	ID          string // feed GUID with any #fragment stripped; may be empty
	Title       string
	Description string
	Link        string
	Content     string // never empty; falls back to the description
}

// FetchError means the feed itself could not be fetched or parsed. There is
// nothing to process, so callers abort the run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reader fetches the feed and the linked article pages.
type Reader struct {
	feedURL string
	parser  *gofeed.Parser
	client  *http.Client
}

// NewReader creates a Reader for a feed URL. timeout guards individual page
// fetches, not the whole run.
func NewReader(feedURL string, timeout time.Duration) *Reader {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Reader{
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Fetch returns the first limit items of the feed in feed order. Failure to
// fetch or parse the feed is fatal (*FetchError); failure to fetch any
// individual article page is not, that article just ships with
// description-only content.
func (r *Reader) Fetch(ctx context.Context, limit int) ([]Article, error) {
	parsed, err := r.parser.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		return nil, &FetchError{URL: r.feedURL, Err: err}
	}
	if len(parsed.Items) == 0 {
		return nil, &FetchError{URL: r.feedURL, Err: fmt.Errorf("no articles in feed")}
	}

	items := parsed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	articles := make([]Article, 0, len(items))
	for i, item := range items {
		a := Article{
			ID:          rawID(item),
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Link:        item.Link,
		}

		log.Printf("Fetching article %d/%d: %s", i+1, len(items), a.Title)

		body, err := r.fetchBody(ctx, a.Link)
		if err != nil {
			log.Printf("Error fetching article %q: %v", a.Title, err)
			body = ""
		}
		if body == "" {
			body = a.Description
		}

		a.Content = fmt.Sprintf("Title: %s\n\n%s\n\n%s", a.Title, a.Description, body)
		articles = append(articles, a)
	}

	return articles, nil
}

// rawID returns the feed-provided identifier for an item. BBC GUIDs carry a
// revision fragment after '#' which must not defeat deduplication.
func rawID(item *gofeed.Item) string {
	guid := item.GUID
	if guid == "" {
		return ""
	}
	if i := strings.Index(guid, "#"); i >= 0 {
		guid = guid[:i]
	}
	return guid
}

// fetchBody GETs the article page and extracts plain-text paragraphs.
func (r *Reader) fetchBody(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("article has no link")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "emojinews/1.0 (news pipeline)")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("article page returned %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return extractBody(html, link), nil
}
