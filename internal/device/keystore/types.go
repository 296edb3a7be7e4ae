package keystore

// File is an encrypted mnemonic in the Ethereum keystore v3 layout.
type File struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int // Derived key length (32 bytes)
	N     int // CPU/memory cost parameter
	R     int // Block size parameter
	P     int // Parallelization parameter
}

const (
	version    = 3
	cipherName = "aes-128-ctr"
	kdfName    = "scrypt"
)

// StandardScryptParams returns the default scrypt parameters of keystore v3 files.
func StandardScryptParams() ScryptParams {
	return ScryptParams{
		DKLen: 32,      //nolint:mnd
		N:     1 << 18, //nolint:mnd
		R:     8,       //nolint:mnd
		P:     1,
	}
}

// LightScryptParams trades strength for speed, for development keystores and tests.
func LightScryptParams() ScryptParams {
	return ScryptParams{
		DKLen: 32,      //nolint:mnd
		N:     1 << 12, //nolint:mnd
		R:     8,       //nolint:mnd
		P:     6,       //nolint:mnd
	}
}
