package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/crypto"
	"golang.org/x/crypto/ed25519"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
)

// GenPrivateKey creates a random ed25519 key.
func GenPrivateKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return priv, nil
}

func PrivateKeyToHex(priv ed25519.PrivateKey) string {
	return hex.EncodeToString(priv.Seed())
}

// StringToPrivateKey accepts either the 32-byte seed or the full 64-byte
// key, hex encoded with or without 0x.
func StringToPrivateKey(s string) (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(common.Trim0xPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(b), nil
	default:
		return nil, fmt.Errorf("invalid private key size: %d", len(b))
	}
}

// NewAccount builds the aptos account of an ed25519 key. Its address is
// the identity the key signs for.
func NewAccount(priv ed25519.PrivateKey) (*aptos.Account, error) {
	key := crypto.Ed25519PrivateKey{}
	if err := key.FromBytes(priv.Seed()); err != nil {
		return nil, fmt.Errorf("create ed25519 private key: %w", err)
	}
	account, err := aptos.NewAccountFromSigner(&key)
	if err != nil {
		return nil, fmt.Errorf("create account from signer: %w", err)
	}
	return account, nil
}

// AddressOfKey parses a private key and returns its account address.
func AddressOfKey(s string) (agreement.Address, error) {
	priv, err := StringToPrivateKey(s)
	if err != nil {
		return agreement.Address{}, err
	}
	account, err := NewAccount(priv)
	if err != nil {
		return agreement.Address{}, err
	}
	return account.AccountAddress(), nil
}
