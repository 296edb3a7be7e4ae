// Package hd derives secp256k1 account keys from a seed along BIP32/BIP44 paths.
package hd

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// DefaultBasePath is the account-level prefix used when a device has no configured path.
const DefaultBasePath = "m/44'/60'/0'/0"

var ErrEmptySeed = errors.New("seed is empty")

// Account is one derived key with its public projection.
type Account struct {
	Path      string
	Address   common.Address
	PublicKey []byte
	ChainCode []byte
	key       *ecdsa.PrivateKey
}

// PrivateKey exposes the signing key. Callers must not retain it beyond one signing operation.
func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

// PublicKeyHex is the compressed public key, 0x-prefixed.
func (a *Account) PublicKeyHex() string {
	return hexutil.Encode(a.PublicKey)
}

// AccountPath appends index to base.
func AccountPath(base string, index int) string {
	return fmt.Sprintf("%s/%d", strings.TrimSuffix(base, "/"), index)
}

// Derive walks path from the master key of seed.
func Derive(seed []byte, path string) (*Account, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}

	indices, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid derivation path %q", path)
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	return &Account{
		Path:      path,
		Address:   crypto.PubkeyToAddress(privateKey.PublicKey),
		PublicKey: crypto.CompressPubkey(&privateKey.PublicKey),
		ChainCode: key.ChainCode,
		key:       privateKey,
	}, nil
}
