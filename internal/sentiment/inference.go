package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsRadar/internal/domain"
)

// InferenceClient talks to one hosted text-classification endpoint.
type InferenceClient struct {
	endpoint string
	apiKey   string
	mapLabel func(string) domain.SentimentLabel
	http     *http.Client
}

// NewFinanceModel targets a FinBERT-style endpoint whose labels already
// spell out positive/negative/neutral.
func NewFinanceModel(endpoint, apiKey string) *InferenceClient {
	return &InferenceClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		mapLabel: mapFinanceLabel,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// NewSocialModel targets a RoBERTa-style endpoint that may answer with
// LABEL_0/1/2 indices instead of words.
func NewSocialModel(endpoint, apiKey string) *InferenceClient {
	return &InferenceClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		mapLabel: mapSocialLabel,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Classify sends the text for scoring and returns the mapped label with
// the model's confidence.
func (c *InferenceClient) Classify(ctx context.Context, text string) (domain.ModelScore, error) {
	if c.endpoint == "" {
		return domain.ModelScore{}, fmt.Errorf("inference endpoint not configured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return domain.ModelScore{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ModelScore{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ModelScore{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ModelScore{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ModelScore{}, fmt.Errorf("decode response: %w", err)
	}

	score := out.Score
	if score <= 0 || score > 1 {
		score = 0.5
	}

	return domain.ModelScore{Label: c.mapLabel(out.Label), Confidence: score}, nil
}

func mapFinanceLabel(label string) domain.SentimentLabel {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "pos"):
		return domain.SentimentPositive
	case strings.Contains(l, "neg"):
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func mapSocialLabel(label string) domain.SentimentLabel {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "pos"), strings.Contains(l, "2"):
		return domain.SentimentPositive
	case strings.Contains(l, "neu"), strings.Contains(l, "1"):
		return domain.SentimentNeutral
	default:
		return domain.SentimentNegative
	}
}
