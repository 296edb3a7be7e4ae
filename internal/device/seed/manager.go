package seed

import (
	"crypto/sha512"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64
)

var ErrEmptyMnemonic = errors.New("mnemonic is empty")

type manager struct {
	mu   sync.RWMutex
	seed []byte
}

// NewManager creates an uninitialized seed manager.
//
//nolint:ireturn
func NewManager() Manager {
	return &manager{}
}

// NewManagerFromMnemonic creates a manager and initializes it in one step.
//
//nolint:ireturn
func NewManagerFromMnemonic(mnemonic string, passphrase string) (Manager, error) {
	m := NewManager()
	if err := m.Initialize(mnemonic, passphrase); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *manager) Initialize(mnemonic string, passphrase string) error {
	words := strings.Fields(mnemonic)
	if len(words) == 0 {
		return ErrEmptyMnemonic
	}

	// BIP39: PBKDF2(mnemonic, "mnemonic"+passphrase, 2048, 64, SHA512)
	derived := pbkdf2.Key(
		[]byte(strings.Join(words, " ")),
		[]byte("mnemonic"+passphrase),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
	m.seed = derived
	return nil
}

func (m *manager) Seed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	out := make([]byte, len(m.seed))
	copy(out, m.seed)
	return out
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
}

func (m *manager) wipe() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}
