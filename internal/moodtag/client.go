// Package moodtag asks an external text classifier for the mood of a rant.
package moodtag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/rant/internal/domain"
)

var (
	// ErrDisabled is returned when no classifier endpoint is configured.
	ErrDisabled = errors.New("mood classifier disabled")

	// ErrUnknownMood is returned when the classifier answers with a mood
	// outside the vocabulary.
	ErrUnknownMood = errors.New("classifier returned unknown mood")
)

// Options configures a Client.
type Options struct {
	Endpoint string        // classifier URL, empty disables tagging
	Timeout  time.Duration // per-request timeout (default 3s)
	RPS      float64       // outbound requests per second (default 2)
	Retries  int           // retries on 429/5xx (default 2, negative disables)
}

// Client calls the classifier with JSON {"text": ...}. A 200 answer carries
// {"mood": ...}; any other status carries {"error": ...}.
type Client struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	retries  int
	backoff  time.Duration
}

// New creates a classifier client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 2
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	} else if opts.Retries == 0 {
		opts.Retries = 2
	}
	return &Client{
		endpoint: strings.TrimSpace(opts.Endpoint),
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(opts.RPS), 1),
		retries:  opts.Retries,
		backoff:  250 * time.Millisecond,
	}
}

// Available reports whether an endpoint is configured.
func (c *Client) Available() bool {
	return c != nil && c.endpoint != ""
}

// Classify returns the canonical vocabulary mood of text.
func (c *Client) Classify(ctx context.Context, text string, vocab *domain.Vocabulary) (string, error) {
	if !c.Available() {
		return "", ErrDisabled
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return "", err
	}

	mood, ok := vocab.Lookup(resp.Mood)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMood, resp.Mood)
	}
	return mood, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) (*classifyResponse, error) {
	var lastErr error
	delay := c.backoff

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		out, retry, err := c.do(ctx, body)
		if err == nil {
			return out, nil
		}
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("classifier failed after %d retries: %w", c.retries, lastErr)
}

// do performs one call and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, body []byte) (*classifyResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	var out classifyResponse
	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &out) == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, retry, fmt.Errorf("classifier error (status %d): %s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("parse response: %w", err)
	}
	return &out, false, nil
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Mood  string `json:"mood,omitempty"`
	Error string `json:"error,omitempty"`
}
