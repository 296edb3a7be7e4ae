// Package bridge wires the keyring registry, init tracker, state synchronizer,
// argument transformer and dispatcher into one context object owned by the
// isolated side of the boundary.
package bridge

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/dispatch"
	"github/chapool/hw-bridge/internal/bridge/initializer"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/bridge/state"
	"github/chapool/hw-bridge/internal/bridge/transform"
)

// InitObserver is notified whenever a keyring type is initialized.
type InitObserver interface {
	ObserveInit(t keyring.Type)
}

// Bridge is created once per isolated context and torn down with Shutdown.
type Bridge struct {
	Registry    *keyring.Registry
	Tracker     *initializer.Tracker
	Transformer *transform.Transformer
	Dispatcher  *dispatch.Dispatcher
	Adapter     *bus.Adapter
	Client      *bus.Client
	Events      *bus.EventLog

	log zerolog.Logger
}

type options struct {
	events          *bus.EventLog
	observer        dispatch.Observer
	initObserver    InitObserver
	phaseHook       func(env bus.CallEnvelope, phase dispatch.Phase)
	boundaryTimeout time.Duration
}

type Option func(*options)

// WithEventLog shares an event log the keyrings already publish into.
func WithEventLog(events *bus.EventLog) Option {
	return func(o *options) {
		o.events = events
	}
}

func WithObserver(observer dispatch.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func WithInitObserver(observer InitObserver) Option {
	return func(o *options) {
		o.initObserver = observer
	}
}

func WithPhaseHook(fn func(env bus.CallEnvelope, phase dispatch.Phase)) Option {
	return func(o *options) {
		o.phaseHook = fn
	}
}

// WithBoundaryTimeout sets the caller-side timeout of the in-process client.
func WithBoundaryTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.boundaryTimeout = timeout
	}
}

// New builds the bridge for a fixed set of keyrings, one per type.
func New(keyrings []keyring.Keyring, log zerolog.Logger, opts ...Option) (*Bridge, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	registry, err := keyring.NewRegistry(keyrings...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build keyring registry")
	}

	events := o.events
	if events == nil {
		events = bus.NewEventLog(log, nil)
	}

	var onInit func(keyring.Type)
	if o.initObserver != nil {
		onInit = o.initObserver.ObserveInit
	}
	tracker := initializer.NewTracker(log, onInit)
	transformer := transform.NewTransformer()

	var dispatchOpts []dispatch.Option
	if o.observer != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithObserver(o.observer))
	}
	if o.phaseHook != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithPhaseHook(o.phaseHook))
	}
	dispatcher := dispatch.New(registry, tracker, state.NewSynchronizer(), transformer, log, dispatchOpts...)

	client := bus.NewClient(nil, o.boundaryTimeout, log)
	adapter := bus.NewAdapter(dispatcher, client, log)
	client.SetTransport(adapter)

	b := &Bridge{
		Registry:    registry,
		Tracker:     tracker,
		Transformer: transformer,
		Dispatcher:  dispatcher,
		Adapter:     adapter,
		Client:      client,
		Events:      events,
		log:         log.With().Str("component", "bridge").Logger(),
	}

	b.log.Info().Strs("keyring_types", typeNames(registry.List())).Msg("Bridge ready")
	return b, nil
}

// Process handles one envelope received from outside the process and returns its result.
func (b *Bridge) Process(ctx context.Context, env bus.CallEnvelope) bus.ResultEnvelope {
	return b.Adapter.Process(ctx, env)
}

// Call issues a call through the in-process boundary, with caller-side correlation and timeout.
func (b *Bridge) Call(ctx context.Context, t keyring.Type, method string, args []any, prevState keyring.State) (bus.ResultEnvelope, error) {
	return b.Client.Call(ctx, t, method, args, prevState)
}

// Shutdown releases transport resources held by the keyrings.
func (b *Bridge) Shutdown(ctx context.Context) []error {
	var errs []error

	b.Registry.Each(func(kr keyring.Keyring) {
		disposer, ok := kr.(keyring.Disposer)
		if !ok {
			return
		}

		b.log.Debug().Str("keyring_type", kr.Type().String()).Msg("Disposing keyring")
		if err := disposer.Dispose(ctx); err != nil {
			b.log.Error().Err(err).Str("keyring_type", kr.Type().String()).Msg("Failed to dispose keyring")
			errs = append(errs, errors.Wrapf(err, "failed to dispose %s keyring", kr.Type()))
		}
	})

	return errs
}

func typeNames(types []keyring.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
