// internal/engine/modes.go
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
	"github.com/rovshanmuradov/solana-bundler/internal/relay"
	"github.com/rovshanmuradov/solana-bundler/internal/wallet"
)

// runUnit drives one unit (a wallet, a batch, or the whole set) through
// prepare, sign, split, and sequential submit. Any error fails the unit.
func (e *Engine) runUnit(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig, amounts []float64) ([]*relay.Receipt, error) {
	prepared, err := e.preparer.Prepare(ctx, string(cfg.Operation), e.prepareRequest(wallets, cfg, amounts))
	if err != nil {
		return nil, err
	}

	bundles, err := e.signAndSplit(prepared.Bundles, wallets)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no transactions generated")
	}

	receipts := make([]*relay.Receipt, 0, len(bundles))
	for _, b := range bundles {
		receipt, err := e.submit.Submit(ctx, b)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// signAndSplit completes signatures with the unit's keypair set and
// re-chunks to the relay's per-bundle ceiling.
func (e *Engine) signAndSplit(bundles []bundle.Bundle, wallets []*wallet.Wallet) ([]bundle.Bundle, error) {
	keys := wallet.Keys(wallets)
	signed := make([]bundle.Bundle, len(bundles))
	for i, b := range bundles {
		s, err := e.signer.Sign(b, keys)
		if err != nil {
			return nil, err
		}
		signed[i] = s
	}
	return bundle.Split(signed, e.opts.MaxTxPerBundle), nil
}

// executeSingle processes wallets strictly in input order, one prepare and
// submit cycle per wallet, with a delay between wallets. One bad wallet is
// counted, not fatal.
func (e *Engine) executeSingle(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig) (*Result, error) {
	result := &Result{}
	for i, w := range wallets {
		if i > 0 {
			if err := sleepCtx(ctx, e.opts.InterWalletDelay); err != nil {
				return nil, err
			}
		}

		receipts, err := e.runUnit(ctx, []*wallet.Wallet{w}, cfg, amountsFor(cfg, i, 1))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Failed++
			e.logger.Warn("Wallet unit failed",
				zap.Int("index", i),
				zap.String("wallet", w.Address()),
				zap.Error(err))
			continue
		}
		result.Succeeded++
		result.Receipts = append(result.Receipts, receipts...)
	}
	return finalize(result), nil
}

// executeBatch chunks wallets into groups, prepares each group with one
// grouped backend call, and processes groups strictly in order with a delay
// between them.
func (e *Engine) executeBatch(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig) (*Result, error) {
	result := &Result{}
	size := e.opts.BatchSize
	for start := 0; start < len(wallets); start += size {
		if start > 0 {
			if err := sleepCtx(ctx, e.opts.InterBatchDelay); err != nil {
				return nil, err
			}
		}
		end := start + size
		if end > len(wallets) {
			end = len(wallets)
		}
		batch := wallets[start:end]

		receipts, err := e.runUnit(ctx, batch, cfg, amountsFor(cfg, start, len(batch)))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Failed++
			e.logger.Warn("Batch failed",
				zap.Int("start", start),
				zap.Int("size", len(batch)),
				zap.Error(err))
			continue
		}
		result.Succeeded++
		result.Receipts = append(result.Receipts, receipts...)
	}
	return finalize(result), nil
}

// executeAllInOne prepares once across all wallets and submits every
// resulting bundle concurrently, each start staggered by its index so the
// burst stays inside the rate limiter's window. Ordering at the network
// layer is approximate; any required sequencing lives in the transactions
// themselves.
func (e *Engine) executeAllInOne(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig) (*Result, error) {
	prepared, err := e.preparer.Prepare(ctx, string(cfg.Operation), e.prepareRequest(wallets, cfg, cfg.Amounts))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{Success: false, Failed: 1, Error: err.Error()}, nil
	}

	bundles, err := e.signAndSplit(prepared.Bundles, wallets)
	if err != nil {
		return &Result{Success: false, Failed: 1, Error: err.Error()}, nil
	}
	if len(bundles) == 0 {
		return &Result{Success: false, Error: "no transactions generated"}, nil
	}

	result := e.submitStaggered(ctx, bundles, 0)
	return finalize(result), nil
}

// submitStaggered fans bundles[offset:] out concurrently with
// index-proportional start delays and joins every outcome: a failed bundle
// never cancels its siblings.
func (e *Engine) submitStaggered(ctx context.Context, bundles []bundle.Bundle, offset int) *Result {
	type outcome struct {
		receipt *relay.Receipt
		err     error
	}
	outcomes := make([]outcome, len(bundles))

	g := new(errgroup.Group)
	for i := offset; i < len(bundles); i++ {
		i := i
		b := bundles[i]
		delay := time.Duration(i-offset) * e.opts.InterBundleDelay
		g.Go(func() error {
			if err := sleepCtx(ctx, delay); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			receipt, err := e.submit.Submit(ctx, b)
			outcomes[i] = outcome{receipt: receipt, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{}
	for i := offset; i < len(bundles); i++ {
		if outcomes[i].err != nil {
			result.Failed++
			e.logger.Warn("Bundle submission failed",
				zap.Int("index", i),
				zap.Error(outcomes[i].err))
			continue
		}
		result.Succeeded++
		result.Receipts = append(result.Receipts, outcomes[i].receipt)
	}
	return result
}

// executeCreate runs a token launch. The first bundle creates the mint and
// pool state every later bundle references, so it goes through the
// critical-retry path; once it has definitively failed nothing else is sent.
func (e *Engine) executeCreate(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig) (*Result, error) {
	prepared, err := e.preparer.Prepare(ctx, string(cfg.Operation), e.prepareRequest(wallets, cfg, cfg.Amounts))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{Success: false, Error: err.Error()}, nil
	}

	bundles, err := e.signAndSplit(prepared.Bundles, wallets)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	if len(bundles) == 0 {
		return &Result{Success: false, Error: "no transactions generated"}, nil
	}

	first, err := e.critical.SubmitCritical(ctx, bundles[0])
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Error("Launch aborted: critical bundle failed", zap.Error(err))
		return &Result{
			Success:     false,
			MintAddress: prepared.MintAddress,
			Failed:      len(bundles),
			Error:       err.Error(),
		}, nil
	}

	result := e.submitStaggered(ctx, bundles, 1)
	result.Succeeded++
	result.Receipts = append([]*relay.Receipt{first}, result.Receipts...)
	result.MintAddress = prepared.MintAddress
	return finalize(result), nil
}
