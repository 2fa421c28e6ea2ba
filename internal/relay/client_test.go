package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOptions{
		Endpoint: server.URL,
		Timeout:  time.Second,
		Limiter:  NewRateLimiter(1000, time.Second),
	}, zap.NewNop())
}

func TestSubmitSuccess(t *testing.T) {
	var received submitRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"bundle-id-123"}`))
	})

	receipt, err := client.Submit(context.Background(), bundle.Bundle{
		Transactions: []string{"tx-a", "tx-b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bundle-id-123", receipt.BundleID)
	assert.Equal(t, []string{"tx-a", "tx-b"}, received.Transactions)
}

func TestSubmitRelayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"code":-32602,"message":"bundle too large"}}`))
	})

	_, err := client.Submit(context.Background(), bundle.Bundle{Transactions: []string{"tx"}})
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, -32602, subErr.Code)
	assert.Contains(t, subErr.Message, "bundle too large")
}

func TestSubmitHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Submit(context.Background(), bundle.Bundle{Transactions: []string{"tx"}})
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusServiceUnavailable, subErr.Code)
}

func TestSubmitDoesNotRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.Submit(context.Background(), bundle.Bundle{Transactions: []string{"tx"}})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "the submitter performs exactly one attempt")
}

func TestSubmitWaitsForRateLimiter(t *testing.T) {
	window := 200 * time.Millisecond
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{
		Endpoint: server.URL,
		Limiter:  NewRateLimiter(1, window),
	}, zap.NewNop())

	start := time.Now()
	_, err := client.Submit(context.Background(), bundle.Bundle{Transactions: []string{"a"}})
	require.NoError(t, err)
	_, err = client.Submit(context.Background(), bundle.Bundle{Transactions: []string{"b"}})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), window-20*time.Millisecond,
		"the second submission must wait for the next window")
}
