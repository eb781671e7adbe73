package domain

import "time"

// FeedItem is a core entity describing one item pulled from a source.
// Immutable once constructed by the source adapter.
type FeedItem struct {
	Source      string
	Key         string
	Title       string
	Summary     string
	Body        string
	URL         string
	PublishedAt time.Time // zero when the source did not provide one
	Metrics     map[string]string
}

// TooOld reports whether the item's publish date predates now-maxAge. A
// zero ceiling marks every past-published item stale; a negative ceiling
// disables the check. Items without a publish date are never stale.
func (i FeedItem) TooOld(now time.Time, maxAge time.Duration) bool {
	if i.PublishedAt.IsZero() || maxAge < 0 {
		return false
	}
	return now.Sub(i.PublishedAt) > maxAge
}

// SeenRecord is the durable dedup row, one per (Source, Key).
type SeenRecord struct {
	Source      string
	Key         string
	PublishedAt time.Time
	FirstSeenAt time.Time
	DeliveryID  int64 // Telegram message id, timeline sources only
}

// Classification is the keyword-filter verdict for one item.
type Classification struct {
	Include  bool
	Macro    bool
	Crypto   bool
	Priority bool
}

// Tags lists the hashtag families in display order.
func (c Classification) Tags() []string {
	var tags []string
	if c.Macro {
		tags = append(tags, "Macro")
	}
	if c.Crypto {
		tags = append(tags, "Crypto")
	}
	if c.Priority {
		tags = append(tags, "Hyperliquid")
	}
	return tags
}

// SentimentLabel enumerates the three-way sentiment verdict.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// ModelScore is one model's contribution to the ensemble.
type ModelScore struct {
	Label      SentimentLabel
	Confidence float64
}

// Sentiment is the fused scorer output. Compound is signed in [-1, 1];
// Score maps it onto [0, 1]. Per-model breakdowns are nil on the
// lexicon-only path.
type Sentiment struct {
	Label    SentimentLabel
	Score    float64
	Compound float64
	Primary  *ModelScore
	Backup   *ModelScore
	Lexicon  bool
}

// TaskState tracks a supervised source task's lifecycle.
type TaskState string

const (
	TaskScheduled  TaskState = "scheduled"
	TaskRunning    TaskState = "running"
	TaskCrashed    TaskState = "crashed"
	TaskRestarting TaskState = "restarting"
	TaskStopped    TaskState = "stopped"
)
