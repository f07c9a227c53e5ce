// Package notify delivers notice alerts through the Telegram Bot API,
// honoring the API's rate-limit contract.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/licitawatch/internal/logger"
)

// defaultAPIBase is the Telegram Bot API endpoint. Overridable for tests.
const defaultAPIBase = "https://api.telegram.org"

// defaultRetryAfter is the backoff used when a rate-limit response carries
// no retry hint.
const defaultRetryAfter = 5 * time.Second

// sendRate paces outbound messages proactively; Telegram allows roughly one
// message per second per chat.
var sendRate = rate.Every(time.Second)

// DeliveryError reports a message that could not be delivered. Delivery
// failures are never fatal to the pipeline: the notice is already marked
// seen, and the failure only surfaces in operator logs.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Config holds the notifier settings. Token and ChatID come from process
// configuration; they are never hardcoded.
type Config struct {
	Token      string
	ChatID     string
	MaxRetries int
	// APIBase overrides the Telegram endpoint, for tests.
	APIBase string
}

// Notifier sends notice alerts to one Telegram chat.
type Notifier struct {
	client  *http.Client
	log     logger.Interface
	cfg     Config
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Notifier.
func New(client *http.Client, log logger.Interface, cfg Config) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Notifier{
		client:  client,
		log:     log.WithComponent("notify"),
		cfg:     cfg,
		limiter: rate.NewLimiter(sendRate, 1),
		sleep:   sleepOrCancel,
	}
}

// sendMessageRequest is the sendMessage call payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the subset of the Bot API response envelope we act on.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers one message, retrying on rate-limit responses with the
// API-provided backoff. Exhausting the retry budget returns a
// *DeliveryError; it never panics or aborts the caller's cycle.
func (n *Notifier) Send(ctx context.Context, text string) error {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= n.cfg.MaxRetries; attempt++ {
		attempts = attempt
		if waitErr := n.limiter.Wait(ctx); waitErr != nil {
			return &DeliveryError{Attempts: attempt, Err: waitErr}
		}

		retryAfter, err := n.post(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryAfter < 0 {
			// Not a rate limit; no point hammering the API again
			// within this delivery.
			break
		}
		if attempt == n.cfg.MaxRetries {
			break
		}

		n.log.Warn("rate limited by notification API",
			"retry_after", retryAfter,
			"attempt", attempt,
		)
		if sleepErr := n.sleep(ctx, retryAfter); sleepErr != nil {
			return &DeliveryError{Attempts: attempt, Err: sleepErr}
		}
	}

	return &DeliveryError{Attempts: attempts, Err: lastErr}
}

// post performs one sendMessage call. On a rate-limit response it returns
// the backoff to wait before retrying; for all other failures it returns a
// negative duration.
func (n *Notifier) post(ctx context.Context, text string) (time.Duration, error) {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                n.cfg.ChatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: false,
	})
	if err != nil {
		return -1, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.cfg.APIBase, n.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return -1, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return -1, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil && resp.StatusCode != http.StatusOK {
		return -1, fmt.Errorf("http status %d", resp.StatusCode)
	}

	if body.OK {
		return 0, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || body.ErrorCode == http.StatusTooManyRequests {
		retryAfter := defaultRetryAfter
		if body.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(body.Parameters.RetryAfter) * time.Second
		}
		return retryAfter, fmt.Errorf("rate limited: %s", body.Description)
	}

	return -1, fmt.Errorf("api error %d: %s", body.ErrorCode, body.Description)
}

// sleepOrCancel sleeps for d or returns the context error on cancellation.
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
