package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	calls     int
	failUntil int // fail the first N calls
}

func (f *fakeSubmitter) Submit(_ context.Context, _ bundle.Bundle) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failUntil {
		return nil, &SubmissionError{Code: -32000, Message: "bundle dropped"}
	}
	return &Receipt{BundleID: "ok"}, nil
}

func testRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:          50,
		MaxConsecutiveErrors: 3,
		BaseDelay:            time.Millisecond,
	}
}

func TestSubmitCriticalFirstTry(t *testing.T) {
	sub := &fakeSubmitter{}
	rc := NewRetryCoordinator(sub, testRetryOptions(), zap.NewNop())

	receipt, err := rc.SubmitCritical(context.Background(), bundle.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, "ok", receipt.BundleID)
	assert.Equal(t, 1, sub.calls)
}

func TestSubmitCriticalRecoversAfterFailures(t *testing.T) {
	sub := &fakeSubmitter{failUntil: 2}
	rc := NewRetryCoordinator(sub, testRetryOptions(), zap.NewNop())

	receipt, err := rc.SubmitCritical(context.Background(), bundle.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, "ok", receipt.BundleID)
	assert.Equal(t, 3, sub.calls)
}

func TestSubmitCriticalStopsAtConsecutiveErrorBudget(t *testing.T) {
	sub := &fakeSubmitter{failUntil: 1 << 30}
	rc := NewRetryCoordinator(sub, testRetryOptions(), zap.NewNop())

	_, err := rc.SubmitCritical(context.Background(), bundle.Bundle{})
	require.Error(t, err)

	var critErr *CriticalBundleError
	require.ErrorAs(t, err, &critErr)
	assert.Equal(t, 3, critErr.ConsecutiveErrors)
	assert.Equal(t, 3, sub.calls, "must terminate after exactly maxConsecutiveErrors failures")

	var subErr *SubmissionError
	assert.ErrorAs(t, err, &subErr, "the last submission error must be preserved")
}

func TestSubmitCriticalStopsAtAttemptBudget(t *testing.T) {
	sub := &fakeSubmitter{failUntil: 1 << 30}
	rc := NewRetryCoordinator(sub, RetryOptions{
		MaxAttempts:          2,
		MaxConsecutiveErrors: 10,
		BaseDelay:            time.Millisecond,
	}, zap.NewNop())

	_, err := rc.SubmitCritical(context.Background(), bundle.Bundle{})
	require.Error(t, err)

	var critErr *CriticalBundleError
	require.ErrorAs(t, err, &critErr)
	assert.Equal(t, 2, critErr.Attempts)
	assert.Equal(t, 2, sub.calls)
}

func TestSubmitCriticalHonorsContext(t *testing.T) {
	sub := &fakeSubmitter{failUntil: 1 << 30}
	rc := NewRetryCoordinator(sub, RetryOptions{
		MaxAttempts:          50,
		MaxConsecutiveErrors: 50,
		BaseDelay:            50 * time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rc.SubmitCritical(ctx, bundle.Bundle{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
