package sentiment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func modelServer(t *testing.T, hits *atomic.Int32, finance, social func() (string, float64)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		var label string
		var score float64
		switch r.URL.Path {
		case "/finance":
			label, score = finance()
		case "/social":
			label, score = social()
		default:
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"label": label, "score": score})
	}))
}

func newTestEnsemble(srv *httptest.Server) *Ensemble {
	return NewEnsemble(config.SentimentConfig{
		PrimaryURL: srv.URL + "/finance",
		BackupURL:  srv.URL + "/social",
	}, testLogger())
}

func TestEnsembleShortTextNeverCallsModels(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := modelServer(t, &hits,
		func() (string, float64) { return "positive", 1 },
		func() (string, float64) { return "positive", 1 })
	defer srv.Close()

	got := newTestEnsemble(srv).Score(context.Background(), "btc soars")

	if hits.Load() != 0 {
		t.Fatalf("short text reached the models %d times", hits.Load())
	}
	if !got.Lexicon {
		t.Fatal("short text must be scored by the lexicon")
	}
}

func TestEnsembleFusesWeightedVerdicts(t *testing.T) {
	t.Parallel()

	srv := modelServer(t, nil,
		func() (string, float64) { return "positive", 1 },
		func() (string, float64) { return "LABEL_0", 0.5 })
	defer srv.Close()

	got := newTestEnsemble(srv).Score(context.Background(), "markets extend a broad advance today")

	// (0.6*1*(+1) + 0.4*0.5*(-1)) / (0.6 + 0.2) = 0.5
	if math.Abs(got.Compound-0.5) > 1e-9 {
		t.Fatalf("compound = %.4f, want 0.5", got.Compound)
	}
	if got.Label != domain.SentimentPositive {
		t.Fatalf("label = %s, want positive", got.Label)
	}
	if math.Abs(got.Score-0.75) > 1e-9 {
		t.Fatalf("score = %.4f, want 0.75", got.Score)
	}
	if got.Primary == nil || got.Backup == nil {
		t.Fatal("model-path results must carry per-model breakdowns")
	}
	if got.Lexicon {
		t.Fatal("model path must not be flagged as lexicon")
	}
}

func TestEnsembleCueNudges(t *testing.T) {
	t.Parallel()

	t.Run("dovish cue clamped at one", func(t *testing.T) {
		t.Parallel()
		srv := modelServer(t, nil,
			func() (string, float64) { return "positive", 1 },
			func() (string, float64) { return "positive", 1 })
		defer srv.Close()

		got := newTestEnsemble(srv).Score(context.Background(), "spot etf approval could unlock inflows")
		if got.Compound != 1 {
			t.Fatalf("compound = %.4f, want clamp at 1", got.Compound)
		}
	})

	t.Run("hawkish cue shades neutral down", func(t *testing.T) {
		t.Parallel()
		srv := modelServer(t, nil,
			func() (string, float64) { return "neutral", 1 },
			func() (string, float64) { return "neutral", 1 })
		defer srv.Close()

		got := newTestEnsemble(srv).Score(context.Background(), "officials signal another rate hike ahead")
		if math.Abs(got.Compound+0.05) > 1e-9 {
			t.Fatalf("compound = %.4f, want -0.05", got.Compound)
		}
		if got.Label != domain.SentimentNeutral {
			t.Fatalf("label = %s, want neutral", got.Label)
		}
	})
}

func TestEnsembleClipsModelInputAtRuneBoundary(t *testing.T) {
	t.Parallel()

	var mangled atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// A cut inside a rune surfaces as U+FFFD after json encoding.
		if strings.ContainsRune(in.Text, utf8.RuneError) {
			mangled.Store(true)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"label": "neutral", "score": 1})
	}))
	defer srv.Close()

	e := NewEnsemble(config.SentimentConfig{
		PrimaryURL: srv.URL + "/finance",
		BackupURL:  srv.URL + "/social",
	}, testLogger())

	// One leading ASCII byte puts every following two-byte rune off the
	// even byte offsets, so the clip limit lands mid-rune.
	text := "a" + strings.Repeat("é", 700)
	got := e.Score(context.Background(), text)

	if mangled.Load() {
		t.Fatal("model request carried invalid UTF-8")
	}
	if got.Lexicon {
		t.Fatal("expected the model path to be taken")
	}
}

func TestEnsembleFallsBackOnModelError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewEnsemble(config.SentimentConfig{
		PrimaryURL: srv.URL + "/finance",
		BackupURL:  srv.URL + "/social",
	}, testLogger())

	got := e.Score(context.Background(), "exchange hack triggers panic and selloff")
	if !got.Lexicon {
		t.Fatal("model failure must fall back to the lexicon")
	}
	if got.Label != domain.SentimentNegative {
		t.Fatalf("label = %s, want negative", got.Label)
	}
}

func TestEnsembleDegradesWithoutEndpoints(t *testing.T) {
	t.Parallel()

	e := NewEnsemble(config.SentimentConfig{}, testLogger())

	got := e.Score(context.Background(), "a long enough sentence about markets in general")
	if !got.Lexicon {
		t.Fatal("unconfigured ensemble must stay lexicon-only")
	}
}
