// internal/relay/retry.go
package relay

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

const (
	DefaultMaxAttempts          = 50
	DefaultMaxConsecutiveErrors = 3
	DefaultRetryBaseDelay       = 500 * time.Millisecond
)

// Submitter sends one signed bundle to the relay.
type Submitter interface {
	Submit(ctx context.Context, b bundle.Bundle) (*Receipt, error)
}

// RetryCoordinator guards the first bundle of a multi-bundle launch
// sequence. That bundle creates the on-chain state every later bundle
// depends on, so its submission is retried with exponential backoff until
// it lands or the attempt / consecutive-error budget runs out.
type RetryCoordinator struct {
	submitter            Submitter
	maxAttempts          int
	maxConsecutiveErrors int
	baseDelay            time.Duration
	logger               *zap.Logger
}

// RetryOptions bounds the retry loop. Zero values fall back to defaults.
type RetryOptions struct {
	MaxAttempts          int
	MaxConsecutiveErrors int
	BaseDelay            time.Duration
}

// NewRetryCoordinator wraps a submitter with the critical-bundle retry policy.
func NewRetryCoordinator(submitter Submitter, opts RetryOptions, logger *zap.Logger) *RetryCoordinator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxConsecutiveErrors <= 0 {
		opts.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultRetryBaseDelay
	}
	return &RetryCoordinator{
		submitter:            submitter,
		maxAttempts:          opts.MaxAttempts,
		maxConsecutiveErrors: opts.MaxConsecutiveErrors,
		baseDelay:            opts.BaseDelay,
		logger:               logger.Named("critical_retry"),
	}
}

// SubmitCritical submits the bundle, retrying failures with exponential
// backoff (factor 1.5, randomized by ±15%). It returns the receipt of the
// first successful attempt, or a CriticalBundleError once either bound is
// hit. A CriticalBundleError is operation-fatal: no later bundle may be
// submitted after it.
func (rc *RetryCoordinator) SubmitCritical(ctx context.Context, b bundle.Bundle) (*Receipt, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rc.baseDelay
	bo.Multiplier = 1.5
	bo.RandomizationFactor = 0.15
	bo.MaxInterval = 30 * time.Second
	bo.Reset()

	attempts := 0
	consecutive := 0
	var lastErr error

	for attempts < rc.maxAttempts {
		attempts++
		receipt, err := rc.submitter.Submit(ctx, b)
		if err == nil {
			rc.logger.Info("critical bundle landed",
				zap.Int("attempts", attempts),
				zap.String("bundle_id", receipt.BundleID))
			return receipt, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		consecutive++
		rc.logger.Warn("critical bundle submission failed",
			zap.Int("attempt", attempts),
			zap.Int("consecutive_errors", consecutive),
			zap.Error(err))
		if consecutive >= rc.maxConsecutiveErrors {
			break
		}

		delay := bo.NextBackOff()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &CriticalBundleError{
		Attempts:          attempts,
		ConsecutiveErrors: consecutive,
		LastErr:           lastErr,
	}
}
