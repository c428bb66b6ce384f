package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/pkg/logger"
)

// ErrUnexpectedStatus is returned when the service answers outside the
// documented status codes.
var ErrUnexpectedStatus = errors.New("unexpected status")

// submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request and decodes a 200 JSON body into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Post performs a POST request with JSON body and returns the status code.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (int, []byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	data, err := readResponseBody(resp)
	return resp.StatusCode, data, err
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitEvents posts events concurrently using a worker pool. Events in
// dups are posted a second time after the first pass and must be rejected.
func submitEvents(ctx context.Context, cfg *Config, client *HTTPClient, events, dups []model.Event, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("duplicates", len(dups)),
		logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed, submitted, retried atomic.Int64

	pass := func(batch []model.Event) {
		eventChan := make(chan model.Event, cfg.Workers*WorkerChannelMultiplier)
		var wg sync.WaitGroup
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ev := range eventChan {
					result, retries := submitSingleEvent(ctx, client, ev)
					submitted.Add(1)
					retried.Add(int64(retries))
					switch result {
					case resultAccepted:
						accepted.Add(1)
					case resultDuplicate:
						duplicate.Add(1)
					default:
						failed.Add(1)
					}
					if cfg.Verbose {
						log.Debug(ctx, "event submitted",
							logger.String("event_key", ev.EventKey),
							logger.String("result", result))
					}
				}
			}()
		}
	send:
		for _, ev := range batch {
			select {
			case <-ctx.Done():
				break send
			case eventChan <- ev:
			}
		}
		close(eventChan)
		wg.Wait()
	}

	pass(events)
	pass(dups)

	stats.EventsSubmitted = int(submitted.Load())
	stats.EventsAccepted = int(accepted.Load())
	stats.EventsDuplicate = int(duplicate.Load())
	stats.EventsFailed = int(failed.Load())
	stats.EventsRetried = int(retried.Load())

	log.Info(ctx, "event submission completed",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("retried", stats.EventsRetried),
		logger.Int("failed", stats.EventsFailed))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}

// submitSingleEvent posts one event, backing off while the service reports
// a full queue.
func submitSingleEvent(ctx context.Context, client *HTTPClient, ev model.Event) (string, int) {
	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		status, body, err := client.Post(ctx, "/events", ev)
		if err != nil {
			return resultFailed, attempt
		}
		switch status {
		case http.StatusAccepted:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.EventKey != ev.EventKey {
				return resultFailed, attempt
			}
			return resultAccepted, attempt
		case http.StatusConflict:
			return resultDuplicate, attempt
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return resultFailed, attempt
			case <-time.After(retryBackoff * time.Duration(attempt+1)):
			}
		default:
			return resultFailed, attempt
		}
	}
	return resultFailed, maxSubmitAttempts
}
