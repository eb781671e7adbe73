package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"NewsRadar/internal/classify"
	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/format"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/source"
)

const scoreTextLimit = 1600

// PollerDeps wires all driven adapters into the per-source cycle.
type PollerDeps struct {
	Registry   *source.Registry
	Store      ports.SeenStore
	Classifier ports.Classifier
	Scorer     ports.Scorer
	Notifier   ports.Notifier
	Pages      ports.PageFetcher
	Extractor  ports.Extractor
	Logger     *slog.Logger
}

// Poller runs one ingestion cycle for one source: fetch, dedup, enrich,
// classify, score, format, deliver, commit. A bad item is logged and
// skipped; only a source-level fetch failure aborts the cycle.
type Poller struct {
	registry   *source.Registry
	store      ports.SeenStore
	classifier ports.Classifier
	scorer     ports.Scorer
	notifier   ports.Notifier
	pages      ports.PageFetcher
	extractor  ports.Extractor
	logger     *slog.Logger

	strict bool
	maxAge time.Duration
}

// NewPoller constructs the cycle runner.
func NewPoller(deps PollerDeps, pollerCfg config.PollerConfig) *Poller {
	return &Poller{
		registry:   deps.Registry,
		store:      deps.Store,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		notifier:   deps.Notifier,
		pages:      deps.Pages,
		extractor:  deps.Extractor,
		logger:     deps.Logger,
		strict:     pollerCfg.StrictMatch,
		maxAge:     pollerCfg.MaxAge(),
	}
}

// Cycle processes one source once and reports how many items were
// delivered. Fetch failures abort the whole cycle and are retried on the
// next scheduled run, not immediately.
func (p *Poller) Cycle(ctx context.Context, src config.SourceConfig) (int, error) {
	strategy, err := p.registry.Resolve(src.Strategy)
	if err != nil {
		return 0, fmt.Errorf("source %s: %w", src.Name, err)
	}

	items, err := strategy.Scan(ctx, source.Request{Name: src.Name, URL: src.URL, Options: src.Options})
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", src.Name, err)
	}

	timeline := src.Strategy == "timeline"
	now := time.Now().UTC()
	posted := 0

	for _, item := range items {
		if ctx.Err() != nil {
			return posted, ctx.Err()
		}

		delivered, err := p.handleItem(ctx, item, timeline, now)
		if err != nil {
			p.logger.Error("item failed",
				"source", item.Source, "key", item.Key, "error", err)
			continue
		}
		if delivered {
			posted++
		}
	}

	return posted, nil
}

// handleItem walks one item through the pipeline. The returned error is
// informational only; the caller never aborts the cycle over it.
func (p *Poller) handleItem(ctx context.Context, item domain.FeedItem, timeline bool, now time.Time) (bool, error) {
	seen, err := p.store.Seen(ctx, item.Source, item.Key)
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	if seen {
		return false, nil
	}

	rec := domain.SeenRecord{
		Source:      item.Source,
		Key:         item.Key,
		PublishedAt: item.PublishedAt,
		FirstSeenAt: now,
	}

	// Stale items are remembered but never delivered.
	if item.TooOld(now, p.maxAge) {
		return false, p.store.MarkSeen(ctx, rec)
	}

	if timeline {
		return p.deliverTimeline(ctx, item, rec)
	}
	return p.deliverFeed(ctx, item, rec)
}

func (p *Poller) deliverFeed(ctx context.Context, item domain.FeedItem, rec domain.SeenRecord) (bool, error) {
	item.Body = p.enrich(ctx, item)

	fullText := strings.Join([]string{item.Title, item.Summary, item.Body}, " ")
	cls := p.classifier.Classify(fullText)

	scoreText := clip(strings.Join([]string{item.Title, item.Summary, item.Body}, "\n"), scoreTextLimit)

	if !cls.Include && p.strict && classify.MatchesAnyFamily(cls) {
		// Borderline single-family matches still go out when the
		// sentiment reading is extreme.
		sent := p.scorer.Score(ctx, scoreText)
		if sent.Score >= 0.8 || sent.Score <= 0.2 {
			cls.Include = true
		}
	}

	if !cls.Include {
		p.logger.Debug("skip item", "reason", "filter_not_matched",
			"source", item.Source, "title", clip(item.Title, 160))
		return false, p.store.MarkSeen(ctx, rec)
	}

	sent := p.scorer.Score(ctx, scoreText)
	message := format.Render(item, cls, sent, cls.Tags())

	if _, err := p.notifier.Send(ctx, message); err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		// Failed delivery still commits so a poison message cannot
		// wedge the source in a retry loop.
		p.logger.Error("delivery failed, committing anyway",
			"source", item.Source, "key", item.Key, "error", err)
		return false, p.store.MarkSeen(ctx, rec)
	}

	return true, p.store.MarkSeen(ctx, rec)
}

func (p *Poller) deliverTimeline(ctx context.Context, item domain.FeedItem, rec domain.SeenRecord) (bool, error) {
	message := format.RenderTimeline(item)

	id, err := p.notifier.SendBounded(ctx, message)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		p.logger.Error("delivery failed, committing anyway",
			"source", item.Source, "key", item.Key, "error", err)
		return false, p.store.MarkSeen(ctx, rec)
	}

	rec.DeliveryID = id
	return true, p.store.MarkDelivered(ctx, rec)
}

// enrich fetches and extracts the full article body. Best-effort: any
// failure leaves the item with title and summary only.
func (p *Poller) enrich(ctx context.Context, item domain.FeedItem) string {
	if item.URL == "" || p.pages == nil || p.extractor == nil {
		return ""
	}
	markup, err := p.pages.FetchPage(ctx, item.URL)
	if err != nil {
		p.logger.Debug("enrichment fetch failed",
			"source", item.Source, "key", item.Key, "error", err)
		return ""
	}
	return p.extractor.FullText(markup, item.URL)
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
