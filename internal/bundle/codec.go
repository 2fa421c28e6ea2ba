// internal/bundle/codec.go
package bundle

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrDecode marks a transaction that could not be parsed from its wire form.
// A corrupted transaction is always fatal for its bundle; it is never
// silently dropped.
var ErrDecode = errors.New("malformed wire transaction")

// Decode parses a base58-encoded wire transaction.
func Decode(wire string) (*solana.Transaction, error) {
	raw, err := base58.Decode(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: base58: %v", ErrDecode, err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return tx, nil
}

// Encode serializes a transaction back to its base58 wire form.
func Encode(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base58.Encode(raw), nil
}

// RequiredSigners returns the account keys that must sign the transaction:
// the first NumRequiredSignatures entries of the static account key list.
// The caller intersects this set with the keypairs it actually holds.
func RequiredSigners(tx *solana.Transaction) []solana.PublicKey {
	n := int(tx.Message.Header.NumRequiredSignatures)
	if n > len(tx.Message.AccountKeys) {
		n = len(tx.Message.AccountKeys)
	}
	return tx.Message.AccountKeys[:n]
}

// IsFullySigned reports whether every required signature slot is populated.
func IsFullySigned(tx *solana.Transaction) bool {
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if tx.Signatures[i].IsZero() {
			return false
		}
	}
	return true
}
