// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet holds one Solana keypair for the duration of an operation. Nothing
// in this package persists the key material.
type Wallet struct {
	Name       string
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// New creates a wallet from a base58-encoded 64-byte private key.
func New(name, privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// Load reads wallets from a CSV file with columns [Name, PrivateKeyBase58].
// Input order is preserved; rows that fail to parse are skipped.
func Load(path string) ([]*Wallet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing data")
	}

	wallets := make([]*Wallet, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 2 {
			continue
		}
		w, err := New(record[0], record[1])
		if err != nil {
			continue
		}
		wallets = append(wallets, w)
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("no valid wallets in %s", path)
	}
	return wallets, nil
}

// Address returns the wallet's public key in base58 form.
func (w *Wallet) Address() string {
	return w.PublicKey.String()
}

// String returns the wallet's public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}

// Keys extracts the private keys of a wallet set, in order.
func Keys(wallets []*Wallet) []solana.PrivateKey {
	keys := make([]solana.PrivateKey, len(wallets))
	for i, w := range wallets {
		keys[i] = w.PrivateKey
	}
	return keys
}

// Addresses extracts the base58 addresses of a wallet set, in order.
func Addresses(wallets []*Wallet) []string {
	addrs := make([]string, len(wallets))
	for i, w := range wallets {
		addrs[i] = w.Address()
	}
	return addrs
}
