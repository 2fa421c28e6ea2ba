// internal/engine/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

// ErrBackendFetch marks a failed preparation call: transport error, a
// response the backend itself flagged as unsuccessful, or an empty
// transaction set. Fatal for the operation unit that issued it.
var ErrBackendFetch = errors.New("backend fetch failed")

// PrepareRequest is the JSON body of a preparation call. PrivateKeys is
// populated only in self-hosted trusted-server mode; the default path sends
// addresses only.
type PrepareRequest struct {
	Wallets     []string  `json:"wallets"`
	PrivateKeys []string  `json:"privateKeys,omitempty"`
	Mint        string    `json:"mint,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Amounts     []float64 `json:"amounts,omitempty"`
	SlippageBps uint16    `json:"slippageBps"`
	TipLamports uint64    `json:"tipLamports"`

	// Launch parameters, create flow only.
	TokenName   string  `json:"tokenName,omitempty"`
	TokenSymbol string  `json:"tokenSymbol,omitempty"`
	TokenURI    string  `json:"tokenUri,omitempty"`
	DevBuy      float64 `json:"devBuyAmount,omitempty"`
}

// PrepareResult carries the canonical form of a preparation response:
// bundles of partially signed wire transactions, plus the mint address for
// create flows.
type PrepareResult struct {
	Bundles     []bundle.Bundle
	MintAddress string
}

// ClientOptions configures the backend client.
type ClientOptions struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	RetryMax int
}

// Client fetches server-prepared transaction bundles from the backend API.
// Transient HTTP failures are retried by the transport; a response the
// backend marks unsuccessful is not.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a backend client.
func NewClient(opts ClientOptions, logger *zap.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = opts.RetryMax
	if opts.Timeout > 0 {
		httpClient.HTTPClient.Timeout = opts.Timeout
	} else {
		httpClient.HTTPClient.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		logger:     logger.Named("backend"),
	}
}

// Prepare POSTs the request to the operation's endpoint and normalizes the
// response into canonical bundles.
func (c *Client) Prepare(ctx context.Context, operation string, req PrepareRequest) (*PrepareResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prepare request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/%s", c.baseURL, operation)
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build prepare request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrBackendFetch, operation, res.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed prepareResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrBackendFetch, err)
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "backend reported failure without a message"
		}
		return nil, fmt.Errorf("%w: %s", ErrBackendFetch, msg)
	}

	result, err := normalizeBundleResponse(parsed.Data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("prepared bundles",
		zap.String("operation", operation),
		zap.Int("bundles", len(result.Bundles)),
		zap.Int("transactions", bundle.TotalTransactions(result.Bundles)))
	return result, nil
}
