// Package device provides software-backed keyrings that behave like the
// hardware families the bridge talks to: same method vocabulary, same state
// shape, same transport failures.
package device

import (
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Settings describes one simulated device.
type Settings struct {
	Type      keyring.Type `toml:"type"`
	Connected bool         `toml:"connected"`
	Locked    bool         `toml:"locked"`
	HDPath    string       `toml:"hd_path"`
}

// State is the serialized keyring state exchanged with the caller.
type State struct {
	HDPath    string   `json:"hdPath"`
	Accounts  []string `json:"accounts"`
	AppName   string   `json:"appName,omitempty"`
	Transport string   `json:"transport,omitempty"`
}

// PublicKey is returned by getPublicKey on families that expose extended keys.
type PublicKey struct {
	Path      string `json:"path"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	ChainCode string `json:"chainCode"`
}

// Controller toggles the physical condition of a simulated device.
type Controller interface {
	SetConnected(connected bool)
	SetLocked(locked bool)
}

// Status reports the physical condition of a simulated device.
type Status interface {
	Status() string
}

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusLocked       = "locked"
)

// DefaultRoster is one connected, unlocked device per family.
func DefaultRoster() []Settings {
	return []Settings{
		{Type: keyring.TypeLedger, Connected: true},
		{Type: keyring.TypeTrezor, Connected: true},
		{Type: keyring.TypeLattice, Connected: true},
		{Type: keyring.TypeQR, Connected: true},
	}
}
