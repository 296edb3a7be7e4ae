package device

import (
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/seed"
)

// QR signers are air-gapped and have no setup step.
type QR struct {
	*simulator
}

func NewQR(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) *QR {
	settings.Type = keyring.TypeQR
	return &QR{simulator: newSimulator(settings, seeds, events, log)}
}

func (q *QR) Methods() map[string]keyring.Method {
	return map[string]keyring.Method{
		"getPublicKey":        q.ready(q.readyLocked, q.publicKeyLocked),
		"signTransaction":     q.ready(q.readyLocked, q.signTransactionLocked),
		"signPersonalMessage": q.ready(q.readyLocked, q.signPersonalLocked),
	}
}
