// internal/engine/backend/normalize.go
package backend

import (
	"encoding/json"
	"fmt"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
)

// prepareResponse is the backend envelope. Data has accumulated three wire
// shapes over time and all three are still in production:
//
//	{"transactions": ["...", "..."]}
//	{"bundles": [["...", "..."], ...]}
//	{"bundles": [{"transactions": ["...", "..."]}, ...]}
//
// Nothing past this file ever sees anything but canonical bundles.
type prepareResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    prepareData `json:"data"`
}

type prepareData struct {
	Transactions []string          `json:"transactions"`
	Bundles      []json.RawMessage `json:"bundles"`
	MintAddress  string            `json:"mintAddress,omitempty"`
}

// wrappedBundle is the newest of the three legacy shapes.
type wrappedBundle struct {
	Transactions []string `json:"transactions"`
}

// normalizeBundleResponse converts any of the accepted response shapes into
// canonical bundles. An empty transaction set is an ErrBackendFetch: an
// operation with nothing to submit must not look like a success.
func normalizeBundleResponse(data prepareData) (*PrepareResult, error) {
	var bundles []bundle.Bundle

	switch {
	case len(data.Transactions) > 0:
		bundles = []bundle.Bundle{{Transactions: data.Transactions}}

	case len(data.Bundles) > 0:
		bundles = make([]bundle.Bundle, 0, len(data.Bundles))
		for i, raw := range data.Bundles {
			b, err := normalizeOne(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bundle %d: %v", ErrBackendFetch, i, err)
			}
			if len(b.Transactions) == 0 {
				continue
			}
			bundles = append(bundles, b)
		}
	}

	if bundle.TotalTransactions(bundles) == 0 {
		return nil, fmt.Errorf("%w: no transactions generated", ErrBackendFetch)
	}
	return &PrepareResult{Bundles: bundles, MintAddress: data.MintAddress}, nil
}

func normalizeOne(raw json.RawMessage) (bundle.Bundle, error) {
	var flat []string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return bundle.Bundle{Transactions: flat}, nil
	}

	var wrapped wrappedBundle
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Transactions != nil {
		return bundle.Bundle{Transactions: wrapped.Transactions}, nil
	}

	return bundle.Bundle{}, fmt.Errorf("unrecognized bundle shape: %s", truncate(raw, 80))
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
