package keyring

import (
	"bytes"
	"context"
	"encoding/json"
)

// Type identifies a physical-device family.
type Type string

const (
	TypeLedger  Type = "ledger"
	TypeTrezor  Type = "trezor"
	TypeLattice Type = "lattice"
	TypeQR      Type = "qr"
)

// MethodInit is the one-time setup method name shared by all families.
const MethodInit = "init"

func (t Type) String() string {
	return string(t)
}

// State is the opaque serialized configuration of one keyring type.
// Values are treated as immutable, every crossing goes through Clone.
type State json.RawMessage

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	if s == nil {
		return nil
	}

	c := make(State, len(s))
	copy(c, s)
	return c
}

// Equal compares two states byte-wise after trimming whitespace.
func (s State) Equal(o State) bool {
	return bytes.Equal(bytes.TrimSpace(s), bytes.TrimSpace(o))
}

// IsEmpty reports whether the state carries no data (absent or JSON null).
func (s State) IsEmpty() bool {
	trimmed := bytes.TrimSpace(s)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (s State) MarshalJSON() ([]byte, error) {
	if s.IsEmpty() {
		return []byte("null"), nil
	}
	return s, nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	*s = State(data).Clone()
	return nil
}

// Method is one entry of a keyring's dispatch table.
type Method func(ctx context.Context, args []any) (any, error)

// Keyring is the capability set every bridged device family provides.
type Keyring interface {
	Type() Type
	// Serialize returns the current working state.
	Serialize() (State, error)
	// Deserialize replaces the working state.
	Deserialize(state State) error
	// Methods returns the named operations callable across the boundary.
	Methods() map[string]Method
}

// Initializer is implemented by keyrings that need one-time setup.
type Initializer interface {
	Init(ctx context.Context) error
}

// Disposer is implemented by keyrings holding transport resources released on bridge shutdown.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// Reopener is implemented by keyrings whose transport can be released and
// opened again. An explicit init call for an already initialized type runs
// Reopen instead of Init.
type Reopener interface {
	Reopen(ctx context.Context) error
}
