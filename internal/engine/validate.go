// internal/engine/validate.go
package engine

import (
	"errors"
	"fmt"

	"github.com/rovshanmuradov/solana-bundler/internal/wallet"
)

// ErrValidation marks a config/input mismatch detected before any network
// call. The operation never starts.
var ErrValidation = errors.New("invalid operation input")

// validateInputs checks the wallet set and config before anything touches
// the network. Struct tags cover shape; the checks below cover what tags
// cannot express.
func (e *Engine) validateInputs(wallets []*wallet.Wallet, cfg OperationConfig) error {
	if err := e.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(wallets) == 0 {
		return fmt.Errorf("%w: no wallets provided", ErrValidation)
	}

	if cfg.Operation == OperationCreate {
		if cfg.TokenName == "" || cfg.TokenSymbol == "" {
			return fmt.Errorf("%w: token name and symbol are required for create", ErrValidation)
		}
	} else if cfg.TokenMint == "" {
		return fmt.Errorf("%w: token mint is required for %s", ErrValidation, cfg.Operation)
	}

	if cfg.Amounts != nil {
		// Never truncated or padded: a mismatch is always an error.
		if len(cfg.Amounts) != len(wallets) {
			return fmt.Errorf("%w: amounts length %d does not match wallet count %d",
				ErrValidation, len(cfg.Amounts), len(wallets))
		}
		for i, amount := range cfg.Amounts {
			if amount <= 0 {
				return fmt.Errorf("%w: non-positive amount %f for wallet %d", ErrValidation, amount, i)
			}
		}
	} else if cfg.Amount <= 0 && cfg.Operation != OperationCreate {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	return nil
}
