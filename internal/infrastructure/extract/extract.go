package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRadar/internal/ports"
)

const (
	minBodyLength = 200
	maxPageBytes  = 2 << 20
	userAgent     = "NewsRadar/1.0"
)

// Client fetches article pages and distills them into plain text using a
// waterfall of extraction heuristics: known content containers first, a
// densest-block readability pass second, a whole-page strip last. The
// first sufficiently long result wins.
type Client struct {
	http *http.Client
}

var (
	_ ports.PageFetcher = (*Client)(nil)
	_ ports.Extractor   = (*Client)(nil)
)

// NewClient wires an HTTP client; nil gets a 20s timeout default.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{http: client}
}

// FetchPage downloads raw page markup for enrichment.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(raw), nil
}

var contentSelectors = []string{
	"article", "main", "[role=main]", ".post-content", ".entry-content", ".article-body",
}

// FullText returns best-effort plain text, or "" when nothing long
// enough could be extracted. It never fails the caller.
func (c *Client) FullText(markup, pageURL string) string {
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	// Tier 1: well-known content containers.
	for _, selector := range contentSelectors {
		if text := collapse(doc.Find(selector).First().Text()); len(text) > minBodyLength {
			return text
		}
	}

	// Tier 2: densest block of the page.
	if text := densestBlock(doc); len(text) > minBodyLength {
		return text
	}

	// Tier 3: strip the whole page.
	if text := collapse(doc.Find("body").Text()); len(text) > minBodyLength {
		return text
	}

	return ""
}

func densestBlock(doc *goquery.Document) string {
	var best string
	doc.Find("div, section").Each(func(i int, sel *goquery.Selection) {
		// Only leaf-ish blocks: skip containers that nest other divs,
		// otherwise the page root always wins.
		if sel.ChildrenFiltered("div, section").Length() > 0 {
			return
		}
		if text := collapse(sel.Text()); len(text) > len(best) {
			best = text
		}
	})
	return best
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
