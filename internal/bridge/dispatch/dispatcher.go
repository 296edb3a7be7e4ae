package dispatch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/initializer"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/bridge/state"
	"github/chapool/hw-bridge/internal/bridge/transform"
	"github/chapool/hw-bridge/internal/util"
	"golang.org/x/sync/semaphore"
)

// Observer receives per-call measurements. All methods must be safe for concurrent use.
type Observer interface {
	ObserveCall(t keyring.Type, method string, result bus.Result, duration time.Duration)
	ObserveLockWait(t keyring.Type, wait time.Duration)
}

// Dispatcher resolves, initializes and invokes keyring methods for inbound
// call envelopes. Calls for the same keyring type are serialized; calls for
// different types run in parallel.
type Dispatcher struct {
	registry    *keyring.Registry
	tracker     *initializer.Tracker
	sync        *state.Synchronizer
	transformer *transform.Transformer
	locks       map[keyring.Type]*semaphore.Weighted
	observer    Observer
	onPhase     func(env bus.CallEnvelope, phase Phase)
	log         zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithPhaseHook is called on every phase transition of every call.
func WithPhaseHook(fn func(env bus.CallEnvelope, phase Phase)) Option {
	return func(d *Dispatcher) {
		d.onPhase = fn
	}
}

func New(
	registry *keyring.Registry,
	tracker *initializer.Tracker,
	synchronizer *state.Synchronizer,
	transformer *transform.Transformer,
	log zerolog.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		tracker:     tracker,
		sync:        synchronizer,
		transformer: transformer,
		locks:       make(map[keyring.Type]*semaphore.Weighted),
		log:         log.With().Str("component", "dispatcher").Logger(),
	}

	// the set of types is static, so the lock table never changes after this point
	for _, t := range registry.List() {
		d.locks[t] = semaphore.NewWeighted(1)
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Handle processes env to completion and returns its single result.
// It never panics and never returns without a result.
func (d *Dispatcher) Handle(ctx context.Context, env bus.CallEnvelope) bus.ResultEnvelope {
	start := time.Now()
	log := d.log.With().
		Str("promise_id", env.PromiseID).
		Str("keyring_type", env.Type.String()).
		Str("method", env.Method).
		Logger()
	ctx = util.WithLogger(ctx, log)

	d.phase(env, PhaseReceived)
	result := d.runRecovering(ctx, env)
	d.phase(env, PhaseReported)

	if d.observer != nil {
		d.observer.ObserveCall(env.Type, env.Method, result.Result, time.Since(start))
	}

	if result.Resolved() {
		log.Debug().Dur("duration", time.Since(start)).Msg("Call resolved")
	} else {
		log.Info().Str("error", result.ErrorMessage()).Dur("duration", time.Since(start)).Msg("Call rejected")
	}

	return result
}

// runRecovering settles the call with a reject when any step panics,
// including Init, Deserialize and Serialize of the keyring.
func (d *Dispatcher) runRecovering(ctx context.Context, env bus.CallEnvelope) (result bus.ResultEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			util.LogFromContext(ctx).Error().Interface("panic", r).Msg("Recovered from panic in keyring call")
			result = d.fail(env, errors.New(bridgeerr.DescribePanic(r)))
		}
	}()

	return d.run(ctx, env)
}

func (d *Dispatcher) run(ctx context.Context, env bus.CallEnvelope) bus.ResultEnvelope {
	kr, err := d.registry.Get(env.Type)
	if err != nil {
		return d.fail(env, err)
	}

	handler, err := d.registry.Lookup(env.Type, env.Method)
	if err != nil {
		return d.fail(env, err)
	}

	lock := d.locks[env.Type]
	waitStart := time.Now()
	if err := lock.Acquire(ctx, 1); err != nil {
		return d.fail(env, errors.Wrapf(err, "waiting for %s keyring", env.Type))
	}
	defer lock.Release(1)

	if d.observer != nil {
		d.observer.ObserveLockWait(env.Type, time.Since(waitStart))
	}

	if err := d.sync.Restore(kr, env.PrevState); err != nil {
		return d.fail(env, err)
	}
	d.phase(env, PhaseStateRestored)

	skipInvoke := false
	if env.Method == keyring.MethodInit {
		// the requested init is the call itself; a second explicit init only reopens a released transport
		skipInvoke = !d.tracker.MarkForInitCall(env.Type)
		if skipInvoke {
			if err := reopen(ctx, kr); err != nil {
				return d.fail(env, err)
			}
		}
	} else if err := d.tracker.EnsureInitialized(ctx, env.Type, kr); err != nil {
		return d.fail(env, err)
	}
	d.phase(env, PhaseInitialized)

	var response any
	if !skipInvoke {
		response, err = d.invoke(ctx, env, handler)
		if err != nil {
			return d.fail(env, err)
		}
	}

	newState, err := d.sync.Snapshot(kr)
	if err != nil {
		return d.fail(env, err)
	}

	d.phase(env, PhaseSucceeded)
	return bus.Resolve(env.PromiseID, newState, response)
}

func reopen(ctx context.Context, kr keyring.Keyring) error {
	reopener, ok := kr.(keyring.Reopener)
	if !ok {
		return nil
	}

	return errors.Wrapf(reopener.Reopen(ctx), "failed to reopen %s keyring", kr.Type())
}

func (d *Dispatcher) invoke(ctx context.Context, env bus.CallEnvelope, handler keyring.Method) (response any, err error) {
	args, err := d.transformer.EncodeArgs(env.Method, env.Args)
	if err != nil {
		return nil, err
	}

	d.phase(env, PhaseInvoking)
	raw, err := callRecovering(ctx, handler, args)
	if err != nil {
		return nil, err
	}

	return d.transformer.DecodeResult(env.Method, raw)
}

// callRecovering turns a panicking method into an ordinary failure so the
// caller's promise is always settled.
func callRecovering(ctx context.Context, handler keyring.Method, args []any) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.New(bridgeerr.DescribePanic(r))
		}
	}()

	return handler(ctx, args)
}

func (d *Dispatcher) fail(env bus.CallEnvelope, err error) bus.ResultEnvelope {
	d.phase(env, PhaseFailed)
	return bus.Reject(env.PromiseID, unwrapDeviceError(err))
}

// unwrapDeviceError reports device transport failures with the device's own
// message rather than the wrapping context added on the way up.
func unwrapDeviceError(err error) error {
	var deviceErr *bridgeerr.DeviceTransportError
	if errors.As(err, &deviceErr) {
		return deviceErr
	}

	return err
}

func (d *Dispatcher) phase(env bus.CallEnvelope, p Phase) {
	if d.onPhase != nil {
		d.onPhase(env, p)
	}
}

// Locked reports whether a call for t currently holds the type's lock.
func (d *Dispatcher) Locked(t keyring.Type) bool {
	lock, ok := d.locks[t]
	if !ok {
		return false
	}
	if lock.TryAcquire(1) {
		lock.Release(1)
		return false
	}
	return true
}
