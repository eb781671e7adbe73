package rss

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/source"
)

const userAgent = "NewsRadar/1.0"

// Scanner fetches and parses one syndication feed per request.
type Scanner struct {
	client *http.Client
	parser *gofeed.Parser
}

var _ source.Scanner = (*Scanner)(nil)

// NewScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewScanner(client *http.Client) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{client: client, parser: gofeed.NewParser()}
}

// Name identifies the strategy inside the registry.
func (s *Scanner) Name() string {
	return "rss"
}

// Scan downloads the feed and converts entries to FeedItems in the order
// the upstream returned them.
func (s *Scanner) Scan(ctx context.Context, req source.Request) ([]domain.FeedItem, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("source %s has no feed url", req.Name)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, domain.FeedItem{
			Source:      req.Name,
			Key:         entryKey(entry),
			Title:       entry.Title,
			Summary:     entrySummary(entry),
			URL:         entry.Link,
			PublishedAt: publishedAt(entry),
		})
	}

	return items, nil
}

// entryKey prefers the feed's own stable id, then the link, then a hash
// of title and publish date.
func entryKey(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Link != "" {
		return entry.Link
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(entry.Title+"|"+entry.Published)))
}

func entrySummary(entry *gofeed.Item) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Content
}

func publishedAt(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return time.Time{}
}
