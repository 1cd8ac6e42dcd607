package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// HTTPOptions configure the HTTP submitter.
type HTTPOptions struct {
	// Client used for requests. Defaults to a client with a 10s timeout.
	Client *http.Client
	// Attempts bounds retries on transient failures.
	Attempts uint
	// Delay is the initial backoff between attempts.
	Delay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// HTTPSubmitter posts payloads as JSON to the persistence API. Transient
// failures (network errors, 5xx) are retried with backoff; client errors
// (4xx) fail immediately since retrying cannot fix the payload.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
	retry    []retry.Option
}

// NewHTTPSubmitter constructs a submitter for the given endpoint.
func NewHTTPSubmitter(endpoint string, optFns ...func(o *HTTPOptions)) *HTTPSubmitter {
	opts := HTTPOptions{
		Client:   &http.Client{Timeout: 10 * time.Second},
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HTTPSubmitter{
		endpoint: endpoint,
		client:   opts.Client,
		retry: []retry.Option{
			retry.Attempts(opts.Attempts),
			retry.Delay(opts.Delay),
			retry.MaxDelay(opts.MaxDelay),
			retry.LastErrorOnly(true),
		},
	}
}

// Submit implements Submitter.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload Payload) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode payload: %w", err)
	}
	return retry.DoWithData(func() (Receipt, error) {
		return s.post(ctx, body)
	}, append(s.retry, retry.Context(ctx))...)
}

func (s *HTTPSubmitter) post(ctx context.Context, body []byte) (Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var receipt Receipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return Receipt{}, retry.Unrecoverable(fmt.Errorf("decode receipt: %w", err))
		}
		return receipt, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Receipt{}, retry.Unrecoverable(fmt.Errorf("submit rejected: %s: %s", resp.Status, msg))
	default:
		return Receipt{}, fmt.Errorf("submit failed: %s", resp.Status)
	}
}
