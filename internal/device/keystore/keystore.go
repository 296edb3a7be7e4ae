// Package keystore stores the mnemonic behind the simulated devices encrypted
// at rest, so that a bridge can be started without the mnemonic in its env.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 32
	ivSize   = aes.BlockSize
	fileMode = 0o600
)

var (
	ErrInvalidPassword = errors.New("invalid password: MAC mismatch")
	ErrUnsupported     = errors.New("unsupported keystore")
)

// Encrypt seals mnemonic with a key derived from password.
func Encrypt(mnemonic string, password string, params ScryptParams) (*File, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	ciphertext, err := aesCTR(derivedKey[:16], iv, []byte(mnemonic))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	f := &File{
		Version: version,
		ID:      uuid.NewString(),
	}
	f.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	f.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	f.Crypto.Cipher = cipherName
	f.Crypto.KDF = kdfName
	f.Crypto.KDFParams.DKLen = params.DKLen
	f.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	f.Crypto.KDFParams.N = params.N
	f.Crypto.KDFParams.R = params.R
	f.Crypto.KDFParams.P = params.P
	f.Crypto.MAC = hex.EncodeToString(mac(derivedKey[16:32], ciphertext))

	return f, nil
}

// Decrypt recovers the mnemonic. A wrong password yields ErrInvalidPassword.
func (f *File) Decrypt(password string) (string, error) {
	if f.Version != version || f.Crypto.Cipher != cipherName || f.Crypto.KDF != kdfName {
		return "", errors.Wrapf(ErrUnsupported, "version %d, cipher %q, kdf %q", f.Version, f.Crypto.Cipher, f.Crypto.KDF)
	}

	salt, err := hex.DecodeString(f.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}

	iv, err := hex.DecodeString(f.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}

	ciphertext, err := hex.DecodeString(f.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}

	expectedMAC, err := hex.DecodeString(f.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	params := f.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}

	if subtle.ConstantTimeCompare(mac(derivedKey[16:32], ciphertext), expectedMAC) != 1 {
		return "", ErrInvalidPassword
	}

	plaintext, err := aesCTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return string(plaintext), nil
}

// Load reads a keystore file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keystore %s", path)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse keystore %s", path)
	}

	return &f, nil
}

// Save writes the keystore readable by the owner only. An existing file is never overwritten.
func (f *File) Save(path string) error {
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore")
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to create keystore %s", path)
	}

	if _, err := out.Write(raw); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to write keystore %s", path)
	}

	return errors.Wrapf(out.Close(), "failed to close keystore %s", path)
}

func aesCTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)

	return out, nil
}

// mac is Keccak-256 over the second half of the derived key and the ciphertext.
func mac(key []byte, ciphertext []byte) []byte {
	return crypto.Keccak256(key, ciphertext)
}
