// internal/relay/client.go
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

// Receipt is the relay's acknowledgement of an accepted bundle.
type Receipt struct {
	BundleID string
	Raw      json.RawMessage
}

// submitRequest is the relay wire format: fully signed, base58-encoded
// transactions submitted as one bundle.
type submitRequest struct {
	Transactions []string `json:"transactions"`
}

// submitResponse mirrors a JSON-RPC envelope.
type submitResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClientOptions configures the relay client.
type ClientOptions struct {
	Endpoint string
	Timeout  time.Duration
	Limiter  *RateLimiter
}

// Client submits signed bundles to the relay endpoint. The HTTP layer is
// configured with zero retries: a rejected bundle is surfaced as a
// SubmissionError and the caller decides whether to try again.
type Client struct {
	httpClient *retryablehttp.Client
	endpoint   string
	limiter    *RateLimiter
	logger     *zap.Logger
}

// NewClient creates a relay client that honors the given rate limiter.
func NewClient(opts ClientOptions, logger *zap.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 0
	// One attempt, always: even a 5xx comes back as a response so its
	// status reaches the SubmissionError.
	httpClient.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
		return false, err
	}
	if opts.Timeout > 0 {
		httpClient.HTTPClient.Timeout = opts.Timeout
	} else {
		httpClient.HTTPClient.Timeout = 10 * time.Second
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(DefaultMaxPerWindow, DefaultWindow)
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   opts.Endpoint,
		limiter:    limiter,
		logger:     logger.Named("relay"),
	}
}

// Submit waits for a rate-limit slot, sends the bundle, and parses the
// relay's response. It performs exactly one submission attempt.
func (c *Client) Submit(ctx context.Context, b bundle.Bundle) (*Receipt, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(submitRequest{Transactions: b.Transactions})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &SubmissionError{Code: res.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	var parsed submitResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &SubmissionError{Code: parsed.Error.Code, Message: parsed.Error.Message}
	}

	receipt := &Receipt{Raw: parsed.Result}
	// The usual result shape is a bare bundle id string.
	_ = json.Unmarshal(parsed.Result, &receipt.BundleID)

	c.logger.Debug("bundle accepted",
		zap.Int("transactions", b.Len()),
		zap.String("bundle_id", receipt.BundleID))
	return receipt, nil
}
