package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsRadar/internal/ports"
)

const (
	defaultAPIBase    = "https://api.telegram.org"
	defaultRetryAfter = 3 * time.Second
	boundedAttempts   = 3
)

// Notifier delivers messages to a Telegram chat (optionally a forum
// topic) via the bot API, absorbing flood-control signals.
//
// Send retries 429 responses indefinitely, sleeping for the
// server-suggested duration each time; the caller blocks until the
// message is accepted or the context ends. SendBounded gives up after a
// fixed attempt budget so a permanently rejected message cannot wedge a
// source task.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	threadID int64
	preview  bool
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// Option tweaks notifier construction.
type Option func(*Notifier)

// WithAPIBase overrides the bot API host, used by tests.
func WithAPIBase(base string) Option {
	return func(n *Notifier) { n.apiBase = strings.TrimRight(base, "/") }
}

// WithPreview enables link previews on delivered messages.
func WithPreview(enabled bool) Option {
	return func(n *Notifier) { n.preview = enabled }
}

// WithLimiter replaces the default self-throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(n *Notifier) { n.limiter = l }
}

// NewNotifier registers bot token, chat and optional topic identifiers.
func NewNotifier(botToken, chatID string, threadID int64, logger *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		threadID: threadID,
		client:   &http.Client{Timeout: 20 * time.Second},
		// Telegram flood control tolerates roughly one message per
		// 600ms to the same chat.
		limiter: rate.NewLimiter(rate.Every(600*time.Millisecond), 1),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send posts the message, retrying rate-limit responses until accepted.
func (n *Notifier) Send(ctx context.Context, text string) (int64, error) {
	for {
		id, retryAfter, err := n.attempt(ctx, text)
		if retryAfter <= 0 {
			return id, err
		}
		if n.logger != nil {
			n.logger.Info("telegram rate limit, sleeping", "retry_after", retryAfter)
		}
		if err := sleepCtx(ctx, retryAfter); err != nil {
			return 0, err
		}
	}
}

// SendBounded posts with a fixed attempt budget and exponential backoff
// on transport failures. A rate-limit wait does not consume an attempt.
func (n *Notifier) SendBounded(ctx context.Context, text string) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < boundedAttempts; attempt++ {
		id, retryAfter, err := n.attempt(ctx, text)
		if err == nil && retryAfter <= 0 {
			return id, nil
		}
		if retryAfter > 0 {
			if n.logger != nil {
				n.logger.Info("telegram rate limit, sleeping", "retry_after", retryAfter)
			}
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return 0, err
			}
			attempt--
			continue
		}
		lastErr = err
		if err := sleepCtx(ctx, time.Duration(1<<uint(attempt))*time.Second); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("delivery failed after %d attempts: %w", boundedAttempts, lastErr)
}

// attempt performs one sendMessage call. A positive retryAfter means the
// API asked us to back off; the caller decides how to wait.
func (n *Notifier) attempt(ctx context.Context, text string) (int64, time.Duration, error) {
	if n.botToken == "" || n.chatID == "" {
		return 0, 0, fmt.Errorf("telegram notifier misconfigured")
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", strconv.FormatBool(!n.preview))
	if n.threadID != 0 {
		form.Set("message_thread_id", strconv.FormatInt(n.threadID, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
		Description string `json:"description"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, retryAfterOf(resp, payload.Parameters.RetryAfter), nil
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("telegram error: %s", resp.Status)
	}
	if decodeErr != nil {
		return 0, 0, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !payload.OK {
		return 0, 0, fmt.Errorf("telegram api error: %s", payload.Description)
	}

	return payload.Result.MessageID, 0, nil
}

// retryAfterOf prefers the Retry-After header, then the structured body
// field, then a fixed default.
func retryAfterOf(resp *http.Response, bodySeconds int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if bodySeconds > 0 {
		return time.Duration(bodySeconds) * time.Second
	}
	return defaultRetryAfter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
