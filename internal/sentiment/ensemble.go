package sentiment

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const (
	shortTextLimit = 16
	modelTextLimit = 1200

	primaryWeight = 0.6
	backupWeight  = 0.4
)

var hawkishCues = []string{"rate hike", "hawkish", "liquidity crunch"}
var dovishCues = []string{"etf approval", "rate cut", "dovish"}

// Ensemble fuses two hosted classifiers with a lexicon fallback. It owns
// its model handles explicitly: they are initialized at most once per
// process, and a failed initialization degrades the scorer to
// lexicon-only for the remainder of the process lifetime.
type Ensemble struct {
	cfg     config.SentimentConfig
	lexicon *Lexicon
	logger  *slog.Logger

	initOnce sync.Once
	primary  *InferenceClient
	backup   *InferenceClient
	degraded bool

	warnOnce sync.Once
}

var _ ports.Scorer = (*Ensemble)(nil)

// NewEnsemble wires the scorer from configuration; model clients are not
// touched until the first long-text score request.
func NewEnsemble(cfg config.SentimentConfig, logger *slog.Logger) *Ensemble {
	return &Ensemble{
		cfg:     cfg,
		lexicon: NewLexicon(),
		logger:  logger,
	}
}

// Score never fails: any model-path problem falls back to the lexicon.
func (e *Ensemble) Score(ctx context.Context, text string) domain.Sentiment {
	text = strings.TrimSpace(text)
	if len(text) < shortTextLimit {
		return e.lexicon.Score(text)
	}

	e.initOnce.Do(e.initModels)
	if e.degraded {
		return e.lexicon.Score(text)
	}

	clipped := text
	if len(clipped) > modelTextLimit {
		cut := modelTextLimit
		for cut > 0 && !utf8.RuneStart(clipped[cut]) {
			cut--
		}
		clipped = clipped[:cut]
	}

	primary, err := e.primary.Classify(ctx, clipped)
	if err != nil {
		return e.fallback(text, err)
	}
	backup, err := e.backup.Classify(ctx, clipped)
	if err != nil {
		return e.fallback(text, err)
	}

	comp := fuse(primary, backup)
	comp = nudge(comp, strings.ToLower(clipped))
	comp = clamp(comp)

	return domain.Sentiment{
		Label:    labelFor(comp, 0.25),
		Score:    (comp + 1) / 2,
		Compound: comp,
		Primary:  &primary,
		Backup:   &backup,
	}
}

func (e *Ensemble) initModels() {
	if e.cfg.PrimaryURL == "" || e.cfg.BackupURL == "" {
		e.degraded = true
		if e.logger != nil {
			e.logger.Warn("sentiment models not configured, lexicon-only for this process")
		}
		return
	}
	e.primary = NewFinanceModel(e.cfg.PrimaryURL, e.cfg.APIKey)
	e.backup = NewSocialModel(e.cfg.BackupURL, e.cfg.APIKey)
}

func (e *Ensemble) fallback(text string, cause error) domain.Sentiment {
	e.warnOnce.Do(func() {
		if e.logger != nil {
			e.logger.Warn("model scoring failed, falling back to lexicon", "error", cause)
		}
	})
	return e.lexicon.Score(text)
}

// fuse combines the two signed verdicts with fixed 60/40 trust weights
// scaled by each model's own confidence.
func fuse(primary, backup domain.ModelScore) float64 {
	wp := primaryWeight * primary.Confidence
	wb := backupWeight * backup.Confidence
	denom := wp + wb
	if denom < 1e-6 {
		denom = 1e-6
	}
	return (signedValue(primary.Label)*wp + signedValue(backup.Label)*wb) / denom
}

func signedValue(label domain.SentimentLabel) float64 {
	switch label {
	case domain.SentimentPositive:
		return 1
	case domain.SentimentNegative:
		return -1
	default:
		return 0
	}
}

func nudge(comp float64, lower string) float64 {
	for _, cue := range hawkishCues {
		if strings.Contains(lower, cue) {
			comp -= 0.05
			break
		}
	}
	for _, cue := range dovishCues {
		if strings.Contains(lower, cue) {
			comp += 0.05
			break
		}
	}
	return comp
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
