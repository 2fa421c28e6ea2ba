package bundle

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

// newTransferTx builds a transfer whose fee payer is the first signer. With
// payer == from it has one required signer, otherwise two (payer first).
func newTransferTx(t *testing.T, payer, from, to solana.PublicKey) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1_000_000, from, to).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	return tx
}

// encodeTx serializes a transaction to its base58 wire form, padding the
// signature slots to the required count the way the backend does.
func encodeTx(t *testing.T, tx *solana.Transaction) string {
	t.Helper()
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < n {
		tx.Signatures = append(tx.Signatures, make([]solana.Signature, n-len(tx.Signatures))...)
	}
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base58.Encode(raw)
}

// signSlot fills one signature slot by signing the message directly,
// mimicking a server-side fee-payer signature.
func signSlot(t *testing.T, tx *solana.Transaction, slot int, key solana.PrivateKey) {
	t.Helper()
	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	sig, err := key.Sign(msg)
	require.NoError(t, err)
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < n {
		tx.Signatures = append(tx.Signatures, make([]solana.Signature, n-len(tx.Signatures))...)
	}
	tx.Signatures[slot] = sig
}
