// internal/bundle/splitter.go
package bundle

// DefaultMaxPerBundle is the relay's hard per-bundle transaction ceiling.
const DefaultMaxPerBundle = 5

// Split flattens the transactions of all input bundles, preserving order,
// and re-chunks them into bundles of at most maxPerBundle transactions.
//
// The backend may return an arbitrary chunking; the relay imposes its own
// per-bundle ceiling, so the grouping is re-normalized client-side
// regardless of what the server sent.
func Split(bundles []Bundle, maxPerBundle int) []Bundle {
	if maxPerBundle <= 0 {
		maxPerBundle = DefaultMaxPerBundle
	}

	flat := make([]string, 0, TotalTransactions(bundles))
	for _, b := range bundles {
		flat = append(flat, b.Transactions...)
	}
	if len(flat) == 0 {
		return nil
	}

	out := make([]Bundle, 0, (len(flat)+maxPerBundle-1)/maxPerBundle)
	for start := 0; start < len(flat); start += maxPerBundle {
		end := start + maxPerBundle
		if end > len(flat) {
			end = len(flat)
		}
		out = append(out, Bundle{Transactions: flat[start:end]})
	}
	return out
}
