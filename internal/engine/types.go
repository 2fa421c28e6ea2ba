// internal/engine/types.go
package engine

import (
	"context"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
	"github.com/rovshanmuradov/solana-bundler/internal/engine/backend"
	"github.com/rovshanmuradov/solana-bundler/internal/history"
	"github.com/rovshanmuradov/solana-bundler/internal/relay"
)

// Operation identifies one of the supported bulk flows.
type Operation string

const (
	OperationBuy         Operation = "buy"
	OperationSell        Operation = "sell"
	OperationConsolidate Operation = "consolidate"
	OperationDistribute  Operation = "distribute"
	OperationCreate      Operation = "create"
)

// Mode selects how wallets are dispatched.
type Mode string

const (
	// ModeSingle processes wallets one at a time, in input order, with a
	// delay between them.
	ModeSingle Mode = "single"
	// ModeBatch groups wallets into chunks prepared by one grouped backend
	// call each, processed strictly in order.
	ModeBatch Mode = "batch"
	// ModeAllInOne prepares once across all wallets and submits every
	// resulting bundle concurrently with index-staggered starts.
	ModeAllInOne Mode = "all-in-one"
)

// OperationConfig is the caller-supplied description of one invocation.
// Either Amount (shared by all wallets) or Amounts (one per wallet, same
// order) is set; never both.
type OperationConfig struct {
	Operation Operation `validate:"required,oneof=buy sell consolidate distribute create"`
	Mode      Mode      `validate:"required,oneof=single batch all-in-one"`

	TokenMint   string
	Amount      float64
	Amounts     []float64
	SlippageBps uint16 `validate:"lte=10000"`
	TipLamports uint64

	// Launch parameters, create flow only.
	TokenName    string
	TokenSymbol  string
	TokenURI     string
	DevBuyAmount float64
}

// Result aggregates the outcome of one Execute call. Expected failure modes
// (validation, per-unit submission errors) are reported here rather than as
// returned errors.
type Result struct {
	Success     bool
	Receipts    []*relay.Receipt
	MintAddress string
	Succeeded   int
	Failed      int
	Error       string
}

// Preparer fetches server-prepared transaction bundles.
type Preparer interface {
	Prepare(ctx context.Context, operation string, req backend.PrepareRequest) (*backend.PrepareResult, error)
}

// Submitter sends one signed bundle to the relay.
type Submitter interface {
	Submit(ctx context.Context, b bundle.Bundle) (*relay.Receipt, error)
}

// CriticalSubmitter guards the first bundle of a launch sequence.
type CriticalSubmitter interface {
	SubmitCritical(ctx context.Context, b bundle.Bundle) (*relay.Receipt, error)
}

// HistorySink records operation outcomes.
type HistorySink interface {
	Record(entry history.Entry)
}
