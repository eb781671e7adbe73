package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/source"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var defaultInstances = []string{
	"https://nitter.privacydev.net",
	"https://nitter.poast.org",
	"https://nitter.net",
}

var statusIDPattern = regexp.MustCompile(`/status/(\d+)`)

// Scanner scrapes a public X timeline through mirror frontends. Mirror
// instances are tried in order; the first one that yields posts wins.
type Scanner struct {
	client    *http.Client
	instances []string
	logger    *slog.Logger
}

var _ source.Scanner = (*Scanner)(nil)

// NewScanner wires an HTTP client and mirror list; nil arguments get
// usable defaults.
func NewScanner(client *http.Client, instances []string, logger *slog.Logger) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if len(instances) == 0 {
		instances = defaultInstances
	}
	return &Scanner{client: client, instances: instances, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *Scanner) Name() string {
	return "timeline"
}

// Scan fetches the newest posts for the username carried in req.URL.
func (s *Scanner) Scan(ctx context.Context, req source.Request) ([]domain.FeedItem, error) {
	username := strings.TrimPrefix(req.URL, "@")
	if username == "" {
		return nil, fmt.Errorf("source %s has no username", req.Name)
	}

	limit := 5
	if v := req.Options["maxPostsPerCycle"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var lastErr error
	for _, instance := range s.instances {
		posts, err := s.scrapeInstance(ctx, instance, username, req.Name, limit)
		if err != nil {
			lastErr = err
			if s.logger != nil {
				s.logger.Warn("mirror instance failed", "instance", instance, "error", err)
			}
			continue
		}
		if len(posts) > 0 {
			return posts, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all mirror instances failed: %w", lastErr)
	}
	return nil, nil
}

func (s *Scanner) scrapeInstance(ctx context.Context, instance, username, sourceName string, limit int) ([]domain.FeedItem, error) {
	pageURL := fmt.Sprintf("%s/%s", strings.TrimRight(instance, "/"), username)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", browserUA)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instance returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse timeline: %w", err)
	}

	var posts []domain.FeedItem
	doc.Find(".timeline-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(posts) >= limit {
			return false
		}

		href, _ := item.Find(".tweet-link").Attr("href")
		m := statusIDPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		postID := m[1]

		content := strings.TrimSpace(item.Find(".tweet-content").Text())

		posts = append(posts, domain.FeedItem{
			Source:      sourceName,
			Key:         postID,
			Title:       content,
			URL:         fmt.Sprintf("https://x.com/%s/status/%s", username, postID),
			PublishedAt: postTime(item),
			Metrics:     postMetrics(item),
		})
		return true
	})

	return posts, nil
}

// postTime parses the mirror's "Jan 2, 2006 · 3:04 PM UTC" title attribute.
func postTime(item *goquery.Selection) time.Time {
	title, ok := item.Find(".tweet-date a").Attr("title")
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{"Jan 2, 2006 · 3:04 PM UTC", "Jan 2, 2006 · 3:04 PM MST"} {
		if t, err := time.Parse(layout, title); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func postMetrics(item *goquery.Selection) map[string]string {
	metrics := make(map[string]string)
	item.Find(".tweet-stat").Each(func(i int, stat *goquery.Selection) {
		value := strings.TrimSpace(stat.Find(".tweet-stat-value").Text())
		if value == "" {
			return
		}
		icon, _ := stat.Find(".icon-container span").Attr("class")
		switch {
		case strings.Contains(icon, "icon-comment"):
			metrics["replies"] = value
		case strings.Contains(icon, "icon-retweet"):
			metrics["retweets"] = value
		case strings.Contains(icon, "icon-heart"):
			metrics["likes"] = value
		}
	})
	if len(metrics) == 0 {
		return nil
	}
	return metrics
}
