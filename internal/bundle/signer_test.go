package bundle

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKeys(t *testing.T, n int) []solana.PrivateKey {
	t.Helper()
	keys := make([]solana.PrivateKey, n)
	for i := range keys {
		key, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		keys[i] = key
	}
	return keys
}

func TestSignCompletesSignature(t *testing.T) {
	keys := newKeys(t, 2)
	owner, recipient := keys[0], keys[1]

	tx := newTransferTx(t, owner.PublicKey(), owner.PublicKey(), recipient.PublicKey())
	in := Bundle{Transactions: []string{encodeTx(t, tx)}}

	signer := NewSigner(zap.NewNop())
	out, err := signer.Sign(in, []solana.PrivateKey{owner})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1)

	signed, err := Decode(out.Transactions[0])
	require.NoError(t, err)
	assert.True(t, IsFullySigned(signed))
	assert.NoError(t, signed.VerifySignatures())
}

func TestSignFullySignedPassthrough(t *testing.T) {
	keys := newKeys(t, 2)
	owner, recipient := keys[0], keys[1]

	tx := newTransferTx(t, owner.PublicKey(), owner.PublicKey(), recipient.PublicKey())
	signSlot(t, tx, 0, owner)
	wire := encodeTx(t, tx)

	signer := NewSigner(zap.NewNop())
	out, err := signer.Sign(Bundle{Transactions: []string{wire}}, keys)
	require.NoError(t, err)

	assert.Equal(t, wire, out.Transactions[0], "fully signed transaction must pass through byte-identical")
}

func TestSignFeePayerPresigned(t *testing.T) {
	keys := newKeys(t, 3)
	feePayer, owner, recipient := keys[0], keys[1], keys[2]

	// transaction 1: fully signed server-side
	tx1 := newTransferTx(t, feePayer.PublicKey(), feePayer.PublicKey(), recipient.PublicKey())
	signSlot(t, tx1, 0, feePayer)
	wire1 := encodeTx(t, tx1)

	// transaction 2: fee payer pre-signed, owner's signature missing
	tx2 := newTransferTx(t, feePayer.PublicKey(), owner.PublicKey(), recipient.PublicKey())
	signSlot(t, tx2, 0, feePayer)
	wire2 := encodeTx(t, tx2)

	signer := NewSigner(zap.NewNop())
	out, err := signer.Sign(Bundle{Transactions: []string{wire1, wire2}}, []solana.PrivateKey{owner})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)

	assert.Equal(t, wire1, out.Transactions[0], "pre-signed transaction must not be touched")

	signed, err := Decode(out.Transactions[1])
	require.NoError(t, err)
	assert.True(t, IsFullySigned(signed))
	assert.NoError(t, signed.VerifySignatures())
	assert.Equal(t, tx2.Signatures[0], signed.Signatures[0], "fee payer signature must be preserved")
}

func TestSignIdempotent(t *testing.T) {
	keys := newKeys(t, 2)
	owner := keys[0]

	tx := newTransferTx(t, owner.PublicKey(), owner.PublicKey(), keys[1].PublicKey())
	in := Bundle{Transactions: []string{encodeTx(t, tx)}}

	signer := NewSigner(zap.NewNop())
	once, err := signer.Sign(in, []solana.PrivateKey{owner})
	require.NoError(t, err)
	twice, err := signer.Sign(once, []solana.PrivateKey{owner})
	require.NoError(t, err)

	assert.Equal(t, once.Transactions, twice.Transactions, "second pass over a signed bundle must be a no-op")
}

func TestSignNoMatchingSigners(t *testing.T) {
	keys := newKeys(t, 3)
	owner, recipient, stranger := keys[0], keys[1], keys[2]

	tx := newTransferTx(t, owner.PublicKey(), owner.PublicKey(), recipient.PublicKey())
	wire := encodeTx(t, tx)

	signer := NewSigner(zap.NewNop())
	out, err := signer.Sign(Bundle{Transactions: []string{wire}}, []solana.PrivateKey{stranger})
	require.NoError(t, err, "a transaction nobody can sign is forwarded, not fatal")
	assert.Equal(t, wire, out.Transactions[0])
}

func TestSignMalformedTransactionFails(t *testing.T) {
	signer := NewSigner(zap.NewNop())
	_, err := signer.Sign(Bundle{Transactions: []string{"!!!not-a-transaction"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}
