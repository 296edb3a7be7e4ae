package device

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/hd"
	"github/chapool/hw-bridge/internal/device/seed"
	"github/chapool/hw-bridge/internal/device/signer"
)

var (
	ErrNoSeed      = errors.New("device has no seed")
	ErrInvalidArgs = errors.New("invalid arguments")
)

// simulator holds what every family shares: physical condition, seed and state.
type simulator struct {
	kt     keyring.Type
	seeds  seed.Manager
	events bus.EventPublisher
	log    zerolog.Logger

	mu          sync.Mutex
	connected   bool
	locked      bool
	defaultPath string
	state       State
}

func newSimulator(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) *simulator {
	path := settings.HDPath
	if path == "" {
		path = hd.DefaultBasePath
	}

	return &simulator{
		kt:          settings.Type,
		seeds:       seeds,
		events:      events,
		log:         log.With().Str("component", "device").Str("keyring_type", settings.Type.String()).Logger(),
		connected:   settings.Connected,
		locked:      settings.Locked,
		defaultPath: path,
		state:       State{HDPath: path, Accounts: []string{}},
	}
}

func (s *simulator) Type() keyring.Type {
	return s.kt
}

func (s *simulator) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *simulator) SetLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = locked
}

func (s *simulator) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.connected:
		return StatusDisconnected
	case s.locked:
		return StatusLocked
	default:
		return StatusConnected
	}
}

func (s *simulator) Serialize() (keyring.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(s.state)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %s state", s.kt)
	}
	return raw, nil
}

func (s *simulator) Deserialize(st keyring.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := State{HDPath: s.defaultPath, Accounts: []string{}}
	if !st.IsEmpty() {
		if err := json.Unmarshal(st, &next); err != nil {
			return errors.Wrapf(err, "failed to deserialize %s state", s.kt)
		}
		if next.HDPath == "" {
			next.HDPath = s.defaultPath
		}
		if next.Accounts == nil {
			next.Accounts = []string{}
		}
	}

	s.state = next
	return nil
}

// guard runs fn with the device lock held.
func (s *simulator) guard(fn keyring.Method) keyring.Method {
	return func(ctx context.Context, args []any) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(ctx, args)
	}
}

func (s *simulator) openLocked() error {
	if !s.connected {
		return bridgeerr.NewDeviceTransportError(s.kt.String(), bridgeerr.MessageFailedToOpenDev)
	}
	return nil
}

func (s *simulator) readyLocked() error {
	if err := s.openLocked(); err != nil {
		return err
	}
	if s.locked {
		return bridgeerr.NewDeviceStatusError(s.kt.String(), bridgeerr.StatusDeviceLocked, "Locked device (0x5515)")
	}
	return nil
}

func (s *simulator) publish(ctx context.Context, event bus.Event) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(ctx, bus.EventMessage{
		Event:   event,
		Target:  bus.TargetExtension,
		Payload: map[string]any{"keyringType": s.kt.String()},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", string(event)).Msg("Failed to publish device event")
	}
}

// pathArg reads an optional derivation path at args[i], defaulting to the first account.
func (s *simulator) pathArg(args []any, i int) (string, error) {
	if i >= len(args) || args[i] == nil {
		return hd.AccountPath(s.state.HDPath, 0), nil
	}

	path, ok := args[i].(string)
	if !ok {
		return "", errors.Wrapf(ErrInvalidArgs, "path must be a string, got %T", args[i])
	}
	if strings.TrimSpace(path) == "" {
		return hd.AccountPath(s.state.HDPath, 0), nil
	}

	return path, nil
}

func (s *simulator) deriveLocked(path string) (*hd.Account, error) {
	sd := s.seeds.Seed()
	if sd == nil {
		return nil, ErrNoSeed
	}
	defer func() {
		for i := range sd {
			sd[i] = 0
		}
	}()

	return hd.Derive(sd, path)
}

func (s *simulator) rememberLocked(address string) {
	for _, a := range s.state.Accounts {
		if strings.EqualFold(a, address) {
			return
		}
	}
	s.state.Accounts = append(s.state.Accounts, address)
}

// unlockLocked derives the account at the requested path and returns its address.
func (s *simulator) unlockLocked(args []any) (any, error) {
	path, err := s.pathArg(args, 0)
	if err != nil {
		return nil, err
	}

	account, err := s.deriveLocked(path)
	if err != nil {
		return nil, err
	}

	address := account.Address.Hex()
	s.rememberLocked(address)
	return address, nil
}

func (s *simulator) publicKeyLocked(args []any) (any, error) {
	path, err := s.pathArg(args, 0)
	if err != nil {
		return nil, err
	}

	account, err := s.deriveLocked(path)
	if err != nil {
		return nil, err
	}

	s.rememberLocked(account.Address.Hex())
	return PublicKey{
		Path:      path,
		Address:   account.Address.Hex(),
		PublicKey: account.PublicKeyHex(),
		ChainCode: hexutil.Encode(account.ChainCode),
	}, nil
}

// signTransactionLocked signs the structured transaction in the final argument.
func (s *simulator) signTransactionLocked(args []any) (any, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrInvalidArgs, "missing transaction")
	}

	tx, ok := args[len(args)-1].(*types.Transaction)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgs, "transaction must be decoded, got %T", args[len(args)-1])
	}

	pathIndex := len(args) - 2
	if pathIndex < 0 {
		pathIndex = len(args)
	}
	path, err := s.pathArg(args, pathIndex)
	if err != nil {
		return nil, err
	}

	account, err := s.deriveLocked(path)
	if err != nil {
		return nil, err
	}

	return signer.SignTransaction(account.PrivateKey(), tx)
}

func (s *simulator) signPersonalLocked(args []any) (any, error) {
	if len(args) < 2 {
		return nil, errors.Wrap(ErrInvalidArgs, "expected path and message")
	}

	message, ok := args[1].([]byte)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgs, "message must be bytes, got %T", args[1])
	}

	path, err := s.pathArg(args, 0)
	if err != nil {
		return nil, err
	}

	account, err := s.deriveLocked(path)
	if err != nil {
		return nil, err
	}

	return signer.SignPersonalMessage(account.PrivateKey(), message)
}

func (s *simulator) signTypedDataLocked(args []any) (any, error) {
	if len(args) < 2 {
		return nil, errors.Wrap(ErrInvalidArgs, "expected path and typed data")
	}

	data, err := signer.ParseTypedData(args[1])
	if err != nil {
		return nil, err
	}

	path, err := s.pathArg(args, 0)
	if err != nil {
		return nil, err
	}

	account, err := s.deriveLocked(path)
	if err != nil {
		return nil, err
	}

	return signer.SignTypedData(account.PrivateKey(), data)
}

// ready wraps op with the family's readiness check.
func (s *simulator) ready(check func() error, op func(args []any) (any, error)) keyring.Method {
	return s.guard(func(_ context.Context, args []any) (any, error) {
		if err := check(); err != nil {
			return nil, err
		}
		return op(args)
	})
}
