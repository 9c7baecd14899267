package feed

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// extractBody extracts plain-text paragraphs from an article page.
//
// Extraction is layered: BBC pages keep body copy in <article> paragraphs,
// with some layouts using data-component="text-block" wrappers instead. When
// neither selector yields text, a generic readability pass is the last
// attempt before the caller falls back to the feed description.
func extractBody(html []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	paragraphs := collectText(doc.Find("article p"))
	if len(paragraphs) == 0 {
		paragraphs = collectText(doc.Find(`[data-component="text-block"]`))
	}
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}

	return readableText(html, pageURL)
}

func collectText(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func readableText(html []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = nil
	}
	article, err := readability.FromReader(bytes.NewReader(html), u)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text
	}
	return ""
}
