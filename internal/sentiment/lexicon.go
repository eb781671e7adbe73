package sentiment

import (
	"math"
	"strings"

	"NewsRadar/internal/domain"
)

// valence assigns a signed intensity to market-news vocabulary. The
// table is deliberately small; it only has to be good enough to label
// short headlines and to serve as the last-resort scorer.
var valence = map[string]float64{
	"surge": 2.1, "surges": 2.1, "soar": 2.3, "soars": 2.3, "rally": 1.9, "rallies": 1.9,
	"gain": 1.4, "gains": 1.4, "jump": 1.6, "jumps": 1.6, "climb": 1.3, "climbs": 1.3,
	"record": 1.2, "boom": 1.8, "bullish": 2.0, "optimism": 1.6, "upbeat": 1.5,
	"approval": 1.5, "approved": 1.5, "adoption": 1.3, "growth": 1.2, "recovery": 1.4,
	"strong": 1.1, "beat": 1.3, "beats": 1.3, "dovish": 1.0, "easing": 0.9,
	"inflows": 1.2, "breakout": 1.4, "upgrade": 1.3, "profit": 1.2, "profits": 1.2,

	"crash": -2.6, "crashes": -2.6, "plunge": -2.3, "plunges": -2.3, "tumble": -1.9,
	"tumbles": -1.9, "slump": -1.8, "slumps": -1.8, "drop": -1.3, "drops": -1.3,
	"fall": -1.2, "falls": -1.2, "sink": -1.6, "sinks": -1.6, "selloff": -2.0,
	"bearish": -2.0, "fear": -1.7, "panic": -2.2, "collapse": -2.5, "collapses": -2.5,
	"fraud": -2.4, "hack": -2.2, "hacked": -2.2, "exploit": -2.0, "lawsuit": -1.5,
	"ban": -1.6, "banned": -1.6, "crackdown": -1.7, "default": -1.9, "bankruptcy": -2.4,
	"recession": -1.8, "stagflation": -1.9, "hawkish": -1.0, "weak": -1.1,
	"loss": -1.3, "losses": -1.3, "outflows": -1.2, "downgrade": -1.4, "crisis": -2.0,
	"liquidation": -1.8, "liquidations": -1.8, "miss": -1.2, "misses": -1.2,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "hardly": true,
	"isn't": true, "wasn't": true, "won't": true, "don't": true, "doesn't": true,
}

// Lexicon is the rule-based fallback scorer. It is pure and cannot fail,
// which makes it the ensemble's last resort.
type Lexicon struct{}

// NewLexicon returns the embedded-valence scorer.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Compound computes a normalized signed score in [-1, 1].
func (l *Lexicon) Compound(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	var sum float64
	for i, tok := range tokens {
		tok = strings.Trim(tok, ".,!?;:\"'()[]")
		v, ok := valence[tok]
		if !ok {
			continue
		}
		// A negator in the preceding two tokens flips and dampens.
		for j := max(0, i-2); j < i; j++ {
			if negators[strings.Trim(tokens[j], ".,!?;:\"'()[]")] {
				v = -0.74 * v
				break
			}
		}
		sum += v
	}
	return normalize(sum)
}

// Score labels text using the lexicon alone with the ±0.3 thresholds
// used for short-text and degraded paths.
func (l *Lexicon) Score(text string) domain.Sentiment {
	comp := l.Compound(text)
	return domain.Sentiment{
		Label:    labelFor(comp, 0.3),
		Score:    (comp + 1) / 2,
		Compound: comp,
		Lexicon:  true,
	}
}

// normalize maps an unbounded valence sum onto (-1, 1).
func normalize(sum float64) float64 {
	return sum / math.Sqrt(sum*sum+15)
}

func labelFor(compound, threshold float64) domain.SentimentLabel {
	switch {
	case compound >= threshold:
		return domain.SentimentPositive
	case compound <= -threshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
