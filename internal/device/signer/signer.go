// Package signer produces the signatures a hardware device would return.
package signer

import (
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// legacyRecoveryOffset turns a 0/1 recovery id into the 27/28 form wallets expect.
const legacyRecoveryOffset = 27

var ErrMissingChainID = errors.New("transaction has no chain id")

// SignTransaction signs tx for its own chain id.
func SignTransaction(key *ecdsa.PrivateKey, tx *types.Transaction) (*types.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}

	chainID := tx.ChainId()
	if chainID == nil || chainID.Sign() == 0 {
		if tx.Type() != types.LegacyTxType {
			return nil, ErrMissingChainID
		}
		signed, err := types.SignTx(tx, types.HomesteadSigner{}, key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to sign transaction")
		}
		return signed, nil
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return signed, nil
}

// SignPersonalMessage signs the EIP-191 hash of message.
func SignPersonalMessage(key *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	return signHash(key, accounts.TextHash(message))
}

// ParseTypedData accepts typed data as a JSON string, raw bytes or an already decoded object.
func ParseTypedData(v any) (apitypes.TypedData, error) {
	var raw []byte
	switch d := v.(type) {
	case apitypes.TypedData:
		return d, nil
	case *apitypes.TypedData:
		if d == nil {
			return apitypes.TypedData{}, errors.New("typed data is nil")
		}
		return *d, nil
	case string:
		raw = []byte(d)
	case []byte:
		raw = d
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return apitypes.TypedData{}, errors.Wrap(err, "failed to encode typed data")
		}
		raw = encoded
	}

	var data apitypes.TypedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return apitypes.TypedData{}, errors.Wrap(err, "failed to decode typed data")
	}

	return data, nil
}

// SignTypedData signs the EIP-712 digest of data.
func SignTypedData(key *ecdsa.PrivateKey, data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash typed data")
	}

	return signHash(key, hash)
}

func signHash(key *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign")
	}
	sig[crypto.RecoveryIDOffset] += legacyRecoveryOffset

	return sig, nil
}

// RecoverPersonal returns the signer of a SignPersonalMessage signature.
func RecoverPersonal(message []byte, sig []byte) (*ecdsa.PublicKey, error) {
	return recoverHash(accounts.TextHash(message), sig)
}

// RecoverTypedData returns the signer of a SignTypedData signature.
func RecoverTypedData(data apitypes.TypedData, sig []byte) (*ecdsa.PublicKey, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash typed data")
	}

	return recoverHash(hash, sig)
}

func recoverHash(hash []byte, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, errors.Errorf("invalid signature length %d", len(sig))
	}

	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= legacyRecoveryOffset {
		normalized[crypto.RecoveryIDOffset] -= legacyRecoveryOffset
	}

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover public key")
	}

	return pub, nil
}
