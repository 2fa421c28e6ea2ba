// internal/bundle/signer.go
package bundle

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Signer completes partial signatures on server-prepared bundles using a
// set of locally held keypairs.
type Signer struct {
	logger *zap.Logger
}

// NewSigner creates a bundle signer.
func NewSigner(logger *zap.Logger) *Signer {
	return &Signer{logger: logger.Named("bundle_signer")}
}

// Sign returns a copy of the bundle in which every transaction the supplied
// keypairs can sign carries their signatures.
//
// A transaction that is already fully signed passes through untouched, wire
// bytes included. A transaction with zero matching signers also passes
// through as-is: one malformed transaction must not block an otherwise valid
// bundle mid-launch, so it is forwarded and left to fail at submission.
// Decode failures are fatal for the whole bundle.
func (s *Signer) Sign(b Bundle, keypairs []solana.PrivateKey) (Bundle, error) {
	index := make(map[solana.PublicKey]solana.PrivateKey, len(keypairs))
	for _, pk := range keypairs {
		index[pk.PublicKey()] = pk
	}

	out := Bundle{Transactions: make([]string, len(b.Transactions))}
	for i, wire := range b.Transactions {
		tx, err := Decode(wire)
		if err != nil {
			return Bundle{}, fmt.Errorf("transaction %d: %w", i, err)
		}

		if IsFullySigned(tx) {
			out.Transactions[i] = wire
			continue
		}

		signed, n, err := s.completeSignatures(tx, index)
		if err != nil {
			return Bundle{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		if n == 0 {
			s.logger.Warn("no matching signers for partially signed transaction, forwarding unsigned",
				zap.Int("index", i))
			out.Transactions[i] = wire
			continue
		}

		wireSigned, err := Encode(signed)
		if err != nil {
			return Bundle{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		out.Transactions[i] = wireSigned
	}
	return out, nil
}

// completeSignatures fills the empty signature slots the index can serve and
// reports how many signatures were added. Slots already populated (e.g. a
// fee payer signed server-side) are preserved.
func (s *Signer) completeSignatures(tx *solana.Transaction, index map[solana.PublicKey]solana.PrivateKey) (*solana.Transaction, int, error) {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize message: %w", err)
	}

	required := RequiredSigners(tx)
	if len(tx.Signatures) < len(required) {
		padded := make([]solana.Signature, len(required))
		copy(padded, tx.Signatures)
		tx.Signatures = padded
	}

	added := 0
	for i, key := range required {
		if !tx.Signatures[i].IsZero() {
			continue
		}
		pk, ok := index[key]
		if !ok {
			continue
		}
		sig, err := pk.Sign(msgBytes)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to sign for %s: %w", key.String(), err)
		}
		tx.Signatures[i] = sig
		added++
	}
	return tx, added, nil
}
