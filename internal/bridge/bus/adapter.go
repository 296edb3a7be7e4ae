package bus

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler processes one call envelope into its result. Implementations must
// always return a result; failures are expressed as rejected results.
type Handler interface {
	Handle(ctx context.Context, env CallEnvelope) ResultEnvelope
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env CallEnvelope) ResultEnvelope

func (f HandlerFunc) Handle(ctx context.Context, env CallEnvelope) ResultEnvelope {
	return f(ctx, env)
}

// Sender carries a result back to the originating context.
type Sender interface {
	Send(ctx context.Context, result ResultEnvelope) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, result ResultEnvelope) error

func (f SenderFunc) Send(ctx context.Context, result ResultEnvelope) error {
	return f(ctx, result)
}

// Adapter connects the transport to the dispatcher: every inbound envelope
// yields exactly one Send. Duplicate deliveries are the transport's concern.
type Adapter struct {
	handler Handler
	sender  Sender
	log     zerolog.Logger
}

func NewAdapter(handler Handler, sender Sender, log zerolog.Logger) *Adapter {
	return &Adapter{
		handler: handler,
		sender:  sender,
		log:     log.With().Str("component", "message_bus").Logger(),
	}
}

// OnCallEnvelope handles env and sends its result.
func (a *Adapter) OnCallEnvelope(ctx context.Context, env CallEnvelope) error {
	result := a.Process(ctx, env)

	if err := a.sender.Send(ctx, result); err != nil {
		a.log.Error().Err(err).Str("promise_id", env.PromiseID).Msg("Failed to send result envelope")
		return errors.Wrapf(err, "failed to send result for promise %s", env.PromiseID)
	}

	return nil
}

// Process validates env and runs the handler without sending, for
// request/response transports that reply inline.
func (a *Adapter) Process(ctx context.Context, env CallEnvelope) ResultEnvelope {
	if err := env.Validate(); err != nil {
		a.log.Warn().Err(err).Str("promise_id", env.PromiseID).Msg("Rejecting invalid call envelope")
		return Reject(env.PromiseID, err)
	}

	return a.handler.Handle(ctx, env)
}

// Deliver makes the adapter usable as a client Transport.
func (a *Adapter) Deliver(ctx context.Context, env CallEnvelope) error {
	return a.OnCallEnvelope(ctx, env)
}
