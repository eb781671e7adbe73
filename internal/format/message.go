package format

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"NewsRadar/internal/classify"
	"NewsRadar/internal/domain"
)

const (
	summaryClip    = 400
	keywordLimit   = 6
	wordsPerMinute = 220
)

// Render builds the Telegram HTML payload for one delivered feed item.
// It is pure: all user-supplied text is escaped and clipped so item
// content can never break message structure.
func Render(item domain.FeedItem, cls domain.Classification, sent domain.Sentiment, tags []string) string {
	header := fmt.Sprintf("<b>📰 %s</b>\n🗞️ %s", esc(item.Title), esc(item.Source))
	if !item.PublishedAt.IsZero() {
		header += " — " + esc(item.PublishedAt.UTC().Format("2006-01-02 15:04"))
	}

	summary := firstNonEmpty(item.Body, item.Summary, item.Title)

	lines := []string{
		header,
		sentimentBlock(sent),
		"🧾 " + esc(clip(summary, summaryClip)),
	}

	if tagLine := renderTags(tags); tagLine != "" {
		lines = append(lines, tagLine)
	}

	lines = append(lines, insightsBlock(item))

	if item.URL != "" {
		lines = append(lines, fmt.Sprintf("🔗 <a href=\"%s\">%s</a>", esc(item.URL), esc(item.URL)))
	}

	return strings.Join(lines, "\n")
}

var (
	mentionPattern = regexp.MustCompile(`@(\w+)`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
)

// RenderTimeline builds the payload for a scraped timeline post:
// linkified mentions and hashtags, engagement counts, and a permalink.
func RenderTimeline(item domain.FeedItem) string {
	lines := []string{fmt.Sprintf("<b>𝕏 @%s</b>", esc(item.Source))}
	if !item.PublishedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("<i>%s</i>", esc(item.PublishedAt.UTC().Format("2006-01-02 15:04 UTC"))))
	}

	if item.Title != "" {
		content := esc(item.Title)
		content = mentionPattern.ReplaceAllString(content, `<a href="https://x.com/$1">@$1</a>`)
		content = hashtagPattern.ReplaceAllString(content, `<a href="https://x.com/hashtag/$1">#$1</a>`)
		lines = append(lines, "", content)
	}

	if row := metricsRow(item.Metrics); row != "" {
		lines = append(lines, "", row)
	}

	if item.URL != "" {
		lines = append(lines, "", fmt.Sprintf("🔗 <a href=\"%s\">View on X</a>", esc(item.URL)))
	}

	return strings.Join(lines, "\n")
}

func metricsRow(metrics map[string]string) string {
	if len(metrics) == 0 {
		return ""
	}
	var parts []string
	if v := metrics["replies"]; v != "" {
		parts = append(parts, "💬 "+esc(v))
	}
	if v := metrics["retweets"]; v != "" {
		parts = append(parts, "🔁 "+esc(v))
	}
	if v := metrics["likes"]; v != "" {
		parts = append(parts, "❤️ "+esc(v))
	}
	return strings.Join(parts, " • ")
}

func sentimentBlock(s domain.Sentiment) string {
	lines := []string{
		fmt.Sprintf("%s <b>%.2f/10</b>", badge(s.Label), s.Score*10),
		fmt.Sprintf("<code>Ensemble comp: %.2f/10</code>", (s.Compound+1)/2*10),
	}
	if s.Primary != nil {
		lines = append(lines, fmt.Sprintf("<code>FinBERT: %s %.2f/10</code>", esc(string(s.Primary.Label)), s.Primary.Confidence*10))
	}
	if s.Backup != nil {
		lines = append(lines, fmt.Sprintf("<code>RoBERTa: %s %.2f/10</code>", esc(string(s.Backup.Label)), s.Backup.Confidence*10))
	}
	if s.Lexicon {
		lines = append(lines, fmt.Sprintf("<code>Lexicon: comp %.2f/10</code>", (s.Compound+1)/2*10))
	}
	return strings.Join(lines, "\n")
}

func badge(label domain.SentimentLabel) string {
	switch label {
	case domain.SentimentPositive:
		return "🟢 Positive"
	case domain.SentimentNegative:
		return "🔴 Negative"
	default:
		return "⚪ Neutral"
	}
}

func insightsBlock(item domain.FeedItem) string {
	full := strings.TrimSpace(strings.Join([]string{item.Title, item.Summary, item.Body}, " "))
	body := firstNonEmpty(item.Body, item.Summary, item.Title)

	parts := []string{fmt.Sprintf("📊 <i>%s</i> • ~%d min • %d words",
		esc(hostOf(item.URL)), readTimeMinutes(body), len(strings.Fields(body)))}

	if kw := classify.PickKeywords(full, keywordLimit); len(kw) > 0 {
		hashed := make([]string, len(kw))
		for i, k := range kw {
			hashed[i] = "#" + strings.ReplaceAll(k, " ", "")
		}
		parts = append(parts, "🔎 "+strings.Join(hashed, ", "))
	}

	if note := classify.WhyItMatters(full); note != "" {
		parts = append(parts, "🎯 "+esc(note))
	}

	return strings.Join(parts, "\n")
}

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	hashed := make([]string, len(tags))
	for i, t := range tags {
		hashed[i] = "#" + strings.ReplaceAll(t, " ", "")
	}
	return strings.Join(hashed, " ")
}

func esc(s string) string {
	return html.EscapeString(s)
}

// clip shortens s to at most n bytes, backing up to a rune boundary so
// the result stays valid UTF-8.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimRight(s[:n], " ") + "…"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func readTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	return int(math.Max(1, math.Ceil(float64(words)/wordsPerMinute)))
}
