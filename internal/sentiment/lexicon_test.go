package sentiment

import (
	"testing"

	"NewsRadar/internal/domain"
)

func TestLexiconScoreLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want domain.SentimentLabel
	}{
		{"positive", "Bitcoin ETF approval sparks broad rally", domain.SentimentPositive},
		{"negative", "Exchange hack triggers panic and selloff", domain.SentimentNegative},
		{"neutral", "Committee publishes the meeting schedule", domain.SentimentNeutral},
	}

	lex := NewLexicon()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := lex.Score(tt.text)
			if got.Label != tt.want {
				t.Fatalf("Score(%q).Label = %s, want %s (compound %.3f)", tt.text, got.Label, tt.want, got.Compound)
			}
			if !got.Lexicon {
				t.Fatal("lexicon results must be flagged as such")
			}
			if got.Score < 0 || got.Score > 1 {
				t.Fatalf("Score out of range: %.3f", got.Score)
			}
		})
	}
}

func TestLexiconNegatorFlips(t *testing.T) {
	t.Parallel()

	lex := NewLexicon()

	plain := lex.Compound("traders turn bullish on the quarter")
	negated := lex.Compound("traders are not bullish on the quarter")

	if plain <= 0 {
		t.Fatalf("expected positive baseline, got %.3f", plain)
	}
	if negated >= 0 {
		t.Fatalf("negated phrase should flip sign, got %.3f", negated)
	}
}

func TestLexiconNeutralIsMidpoint(t *testing.T) {
	t.Parallel()

	got := NewLexicon().Score("nothing scored in this sentence")
	if got.Compound != 0 {
		t.Fatalf("expected zero compound, got %.3f", got.Compound)
	}
	if got.Score != 0.5 {
		t.Fatalf("zero compound must map to 0.5, got %.3f", got.Score)
	}
}
