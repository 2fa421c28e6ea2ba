// internal/history/history.go
package history

import (
	"strconv"
	"time"
)

// Entry is one recorded operation outcome. Every invocation lands here,
// success or failure, including the aggregate error message when present.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Operation   string    `json:"operation"`
	Mode        string    `json:"mode"`
	TokenMint   string    `json:"token_mint,omitempty"`
	MintAddress string    `json:"mint_address,omitempty"`
	WalletCount int       `json:"wallet_count"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// CSVHeaders returns the column names for CSV export.
func CSVHeaders() []string {
	return []string{
		"id", "timestamp", "operation", "mode", "token_mint", "mint_address",
		"wallet_count", "succeeded", "failed", "success", "error",
	}
}

// ToCSV converts the entry to a CSV row matching CSVHeaders.
func (e Entry) ToCSV() []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339),
		e.Operation,
		e.Mode,
		e.TokenMint,
		e.MintAddress,
		strconv.Itoa(e.WalletCount),
		strconv.Itoa(e.Succeeded),
		strconv.Itoa(e.Failed),
		strconv.FormatBool(e.Success),
		e.Error,
	}
}
