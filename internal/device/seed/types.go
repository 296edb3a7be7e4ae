package seed

// Manager holds the software seed that stands in for a device's secure element.
type Manager interface {
	// Initialize derives the seed from a mnemonic and optional passphrase (BIP39 PBKDF2)
	Initialize(mnemonic string, passphrase string) error

	// Seed returns a copy of the seed, nil when not initialized
	Seed() []byte

	IsInitialized() bool

	// Clear wipes the seed from memory
	Clear()
}
