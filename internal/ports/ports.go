package ports

import (
	"context"

	"NewsRadar/internal/domain"
)

// SeenStore is the durable dedup ledger shared by every source task.
type SeenStore interface {
	Seen(ctx context.Context, source, key string) (bool, error)
	MarkSeen(ctx context.Context, rec domain.SeenRecord) error
	MarkDelivered(ctx context.Context, rec domain.SeenRecord) error
	Stats(ctx context.Context) (map[string]int, error)
}

// Classifier decides whether an item is worth delivering.
type Classifier interface {
	Classify(text string) domain.Classification
}

// Scorer attaches a sentiment judgment to item text. Implementations
// must degrade internally rather than fail.
type Scorer interface {
	Score(ctx context.Context, text string) domain.Sentiment
}

// Notifier delivers a rendered message and returns the delivery id.
// Send blocks through rate limiting until accepted; SendBounded gives up
// after a fixed attempt budget.
type Notifier interface {
	Send(ctx context.Context, text string) (int64, error)
	SendBounded(ctx context.Context, text string) (int64, error)
}

// Extractor turns raw page markup into best-effort plain text.
// An empty result means extraction failed; that is not an error.
type Extractor interface {
	FullText(markup, pageURL string) string
}

// PageFetcher retrieves raw page text for enrichment.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}
