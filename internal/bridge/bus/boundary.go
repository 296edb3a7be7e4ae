package bus

import (
	"time"

	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Target routes a message to an isolated context or back to the main process.
type Target string

const (
	TargetTrezorOffscreen    Target = "trezor-offscreen"
	TargetLedgerOffscreen    Target = "ledger-offscreen"
	TargetLatticeOffscreen   Target = "lattice-offscreen"
	TargetExtensionOffscreen Target = "extension-offscreen"
	TargetExtension          Target = "extension"
)

// Event is a lifecycle notification crossing the boundary.
type Event string

const (
	EventTrezorDeviceConnect     Event = "trezor-device-connect"
	EventLedgerDeviceConnect     Event = "ledger-device-connect"
	EventMetaMaskBackgroundReady Event = "metamask-background-ready"
)

// Trusted origins of the device-vendor iframes embedded by the isolated context.
const (
	OriginLattice = "https://lattice.gridplus.io"
	OriginLedger  = "https://metamask.github.io"
)

const (
	// DeviceTransportTimeout bounds device transport establishment.
	DeviceTransportTimeout = 4000 * time.Millisecond
	// ContextLoadTimeout bounds loading of the isolated context.
	ContextLoadTimeout = DeviceTransportTimeout + 1000*time.Millisecond
)

var trustedOrigins = map[string]struct{}{
	OriginLattice: {},
	OriginLedger:  {},
}

// TrustedOrigins returns the trusted origin set.
func TrustedOrigins() []string {
	return []string{OriginLattice, OriginLedger}
}

// ValidateOrigin rejects any origin that is not exactly a trusted one.
func ValidateOrigin(origin string) error {
	if _, ok := trustedOrigins[origin]; !ok {
		return errors.Wrapf(bridgeerr.ErrUntrustedOrigin, "%q", origin)
	}

	return nil
}

// IsKnownEvent reports whether e is part of the lifecycle vocabulary.
func IsKnownEvent(e Event) bool {
	switch e {
	case EventTrezorDeviceConnect, EventLedgerDeviceConnect, EventMetaMaskBackgroundReady:
		return true
	}
	return false
}

// TargetFor returns the isolated context serving a keyring type.
func TargetFor(t keyring.Type) Target {
	switch t {
	case keyring.TypeTrezor:
		return TargetTrezorOffscreen
	case keyring.TypeLedger:
		return TargetLedgerOffscreen
	case keyring.TypeLattice:
		return TargetLatticeOffscreen
	default:
		return TargetExtensionOffscreen
	}
}

// ConnectEventFor returns the device-connect event of a keyring type, if it has one.
func ConnectEventFor(t keyring.Type) (Event, bool) {
	switch t {
	case keyring.TypeTrezor:
		return EventTrezorDeviceConnect, true
	case keyring.TypeLedger:
		return EventLedgerDeviceConnect, true
	}
	return "", false
}

// TargetForOrigin returns the isolated context that embeds the iframe of a trusted origin.
func TargetForOrigin(origin string) (Target, bool) {
	switch origin {
	case OriginLattice:
		return TargetLatticeOffscreen, true
	case OriginLedger:
		return TargetLedgerOffscreen, true
	}
	return "", false
}
