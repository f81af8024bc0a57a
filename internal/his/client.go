// Package his implements the HIS delivery client (spec.md §4.8): it
// consumes ResultsProcessed events from the event bus and POSTs a
// JSON payload to a configured HIS endpoint with bounded retry.
// Grounded on original_source/src-tauri/src/services/his_client.rs for
// the payload shape and per-attempt SentOn re-stamping, using
// cenkalti/backoff/v4 for the bounded-retry policy spec.md §4.8 calls
// "up to N attempts, fixed delay D".
package his

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AireshBhat/nramh-lis/internal/eventbus"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// ResultValue is one entry of a Payload's Values list.
type ResultValue struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Payload is the bit-exact JSON body spec.md §4.8 requires.
type Payload struct {
	Machine  string        `json:"Machine"`
	SentOn   string        `json:"SentOn"`
	SampleNo string        `json:"SampleNo"`
	Sent     bool          `json:"Sent"`
	Values   []ResultValue `json:"Values"`
}

// Client delivers ResultsProcessed events to a HIS HTTP endpoint. It
// implements eventbus.Sink so it can be registered directly with a Bus.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts uint64
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithMaxAttempts overrides the default retry attempt count (3).
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = uint64(n) }
}

// WithRetryDelay overrides the default fixed retry delay (5s).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithHTTPClient overrides the default http.Client (used in tests to
// point at an httptest.Server with a short timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New constructs a Client posting to baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish implements eventbus.Sink. Only ResultsProcessed events are
// acted on; everything else is a no-op success so the bus's fan-out
// never considers this sink to have failed on unrelated event kinds.
func (c *Client) Publish(ctx context.Context, event eventbus.DomainEvent) bool {
	if event.Kind != eventbus.ResultsProcessed {
		return true
	}
	return c.deliver(ctx, event)
}

func (c *Client) deliver(ctx context.Context, event eventbus.DomainEvent) bool {
	sampleNo := "UNKNOWN"
	if event.Patient != nil && event.Patient.PatientID != "" {
		sampleNo = event.Patient.PatientID
	}

	values := make([]ResultValue, 0, len(event.Results))
	for _, r := range event.Results {
		values = append(values, ResultValue{Name: NormalizeTestName(r.TestID), Value: r.Value.String()})
	}

	machine := MachineName(event.AnalyzerID)

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.maxAttempts-1)
	policy = backoff.WithContext(policy, ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		payload := Payload{
			Machine:  machine,
			SentOn:   time.Now().Local().Format(time.RFC3339),
			SampleNo: sampleNo,
			Sent:     true,
			Values:   values,
		}
		return c.postOnce(ctx, payload)
	}, policy)

	if err != nil {
		c.logger.Warn("his delivery exhausted retries, dropping result",
			"analyzer_id", event.AnalyzerID, "attempts", attempt, "error", err)
		return false
	}
	return true
}

func (c *Client) postOnce(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("encode his payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build his request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("his request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("his responded with status %d", resp.StatusCode)
	}
	return nil
}
