// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
	"github.com/rovshanmuradov/solana-bundler/internal/engine/backend"
	"github.com/rovshanmuradov/solana-bundler/internal/history"
	"github.com/rovshanmuradov/solana-bundler/internal/wallet"
)

// Options tunes dispatch behavior. Zero values fall back to defaults.
type Options struct {
	MaxTxPerBundle   int
	BatchSize        int
	InterWalletDelay time.Duration
	InterBatchDelay  time.Duration
	InterBundleDelay time.Duration

	// SelfHosted sends private keys in prepare requests. Only for an
	// explicitly trusted, self-hosted backend.
	SelfHosted bool
}

const (
	defaultBatchSize        = 5
	defaultInterWalletDelay = 200 * time.Millisecond
	defaultInterBatchDelay  = time.Second
	defaultInterBundleDelay = 100 * time.Millisecond
)

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Logger   *zap.Logger
	Preparer Preparer
	Signer   *bundle.Signer
	Submit   Submitter
	Critical CriticalSubmitter
	History  HistorySink
	Options  Options
}

// Engine drives one operation through prepare, sign, split, and submit,
// aggregating per-unit outcomes. Wallet credentials pass through per call
// and are never retained.
type Engine struct {
	preparer Preparer
	signer   *bundle.Signer
	submit   Submitter
	critical CriticalSubmitter
	history  HistorySink
	validate *validator.Validate
	opts     Options
	logger   *zap.Logger
}

// NewEngine creates an operation engine.
func NewEngine(cfg EngineConfig) *Engine {
	opts := cfg.Options
	if opts.MaxTxPerBundle <= 0 {
		opts.MaxTxPerBundle = bundle.DefaultMaxPerBundle
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.InterWalletDelay <= 0 {
		opts.InterWalletDelay = defaultInterWalletDelay
	}
	if opts.InterBatchDelay <= 0 {
		opts.InterBatchDelay = defaultInterBatchDelay
	}
	if opts.InterBundleDelay <= 0 {
		opts.InterBundleDelay = defaultInterBundleDelay
	}

	return &Engine{
		preparer: cfg.Preparer,
		signer:   cfg.Signer,
		submit:   cfg.Submit,
		critical: cfg.Critical,
		history:  cfg.History,
		validate: validator.New(),
		opts:     opts,
		logger:   cfg.Logger.Named("engine"),
	}
}

// Execute runs one operation to completion. Validation failures and per-unit
// submission failures are reported in the Result, not returned as errors; the
// returned error is reserved for context cancellation and programmer errors.
func (e *Engine) Execute(ctx context.Context, wallets []*wallet.Wallet, cfg OperationConfig) (*Result, error) {
	opID := uuid.NewString()
	logger := e.logger.With(
		zap.String("op_id", opID),
		zap.String("operation", string(cfg.Operation)),
		zap.String("mode", string(cfg.Mode)),
		zap.Int("wallets", len(wallets)))

	if err := e.validateInputs(wallets, cfg); err != nil {
		logger.Warn("Operation rejected", zap.Error(err))
		result := &Result{Success: false, Error: err.Error()}
		e.record(opID, wallets, cfg, result)
		return result, nil
	}

	logger.Info("Executing operation")

	var (
		result *Result
		err    error
	)
	if cfg.Operation == OperationCreate {
		result, err = e.executeCreate(ctx, wallets, cfg)
	} else {
		switch cfg.Mode {
		case ModeSingle:
			result, err = e.executeSingle(ctx, wallets, cfg)
		case ModeBatch:
			result, err = e.executeBatch(ctx, wallets, cfg)
		case ModeAllInOne:
			result, err = e.executeAllInOne(ctx, wallets, cfg)
		default:
			return nil, fmt.Errorf("unknown execution mode %q", cfg.Mode)
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Operation finished",
		zap.Bool("success", result.Success),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	e.record(opID, wallets, cfg, result)
	return result, nil
}

// finalize derives the terminal state from per-unit tallies: success if at
// least one unit landed, with a count summary when anything failed.
func finalize(result *Result) *Result {
	result.Success = result.Succeeded > 0
	if result.Failed > 0 {
		result.Error = fmt.Sprintf("Succeeded: %d, Failed: %d", result.Succeeded, result.Failed)
	}
	return result
}

func (e *Engine) record(opID string, wallets []*wallet.Wallet, cfg OperationConfig, result *Result) {
	if e.history == nil {
		return
	}
	e.history.Record(history.Entry{
		ID:          opID,
		Timestamp:   time.Now(),
		Operation:   string(cfg.Operation),
		Mode:        string(cfg.Mode),
		TokenMint:   cfg.TokenMint,
		MintAddress: result.MintAddress,
		WalletCount: len(wallets),
		Succeeded:   result.Succeeded,
		Failed:      result.Failed,
		Success:     result.Success,
		Error:       result.Error,
	})
}

// prepareRequest builds the backend request for a wallet subset. Private
// keys are attached only in self-hosted mode.
func (e *Engine) prepareRequest(wallets []*wallet.Wallet, cfg OperationConfig, amounts []float64) backend.PrepareRequest {
	req := backend.PrepareRequest{
		Wallets:     wallet.Addresses(wallets),
		Mint:        cfg.TokenMint,
		Amount:      cfg.Amount,
		Amounts:     amounts,
		SlippageBps: cfg.SlippageBps,
		TipLamports: cfg.TipLamports,
		TokenName:   cfg.TokenName,
		TokenSymbol: cfg.TokenSymbol,
		TokenURI:    cfg.TokenURI,
		DevBuy:      cfg.DevBuyAmount,
	}
	if e.opts.SelfHosted {
		keys := make([]string, len(wallets))
		for i, w := range wallets {
			keys[i] = w.PrivateKey.String()
		}
		req.PrivateKeys = keys
	}
	return req
}

// amountsFor slices the per-wallet amount vector for a wallet subrange, or
// returns nil when a shared amount is in use.
func amountsFor(cfg OperationConfig, start, count int) []float64 {
	if cfg.Amounts == nil {
		return nil
	}
	return cfg.Amounts[start : start+count]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
