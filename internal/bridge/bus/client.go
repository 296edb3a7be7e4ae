package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Transport delivers a call envelope to the isolated context.
type Transport interface {
	Deliver(ctx context.Context, env CallEnvelope) error
}

// Client is the caller side of the boundary. It issues promise ids, waits for
// the correlated result and applies the boundary timeout. Results arriving
// after the timeout, or for unknown promise ids, are dropped.
type Client struct {
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.Mutex
	transport Transport
	pending   map[string]chan ResultEnvelope
}

// NewClient creates a client. A zero timeout selects ContextLoadTimeout.
func NewClient(transport Transport, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = ContextLoadTimeout
	}

	return &Client{
		transport: transport,
		timeout:   timeout,
		log:       log.With().Str("component", "bus_client").Logger(),
		pending:   make(map[string]chan ResultEnvelope),
	}
}

// SetTransport wires the transport after construction, for in-process loops
// where the transport needs the client as its sender.
func (c *Client) SetTransport(transport Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = transport
}

// Call sends one envelope and waits for its result.
func (c *Client) Call(ctx context.Context, t keyring.Type, method string, args []any, prevState keyring.State) (ResultEnvelope, error) {
	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return ResultEnvelope{}, errors.New("bus client has no transport")
	}

	env := CallEnvelope{
		Type:      t,
		Method:    method,
		Args:      args,
		PrevState: prevState.Clone(),
		PromiseID: uuid.NewString(),
	}

	ch := c.register(env.PromiseID)
	defer c.unregister(env.PromiseID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	deliverErr := make(chan error, 1)
	go func() {
		// the bridge defines no per-call timeout of its own
		deliverErr <- transport.Deliver(context.WithoutCancel(ctx), env)
	}()

	for {
		select {
		case res := <-ch:
			return res, nil
		case err := <-deliverErr:
			if err != nil {
				return ResultEnvelope{}, errors.Wrap(err, "failed to deliver call envelope")
			}
			deliverErr = nil
		case <-ctx.Done():
			c.log.Warn().
				Str("promise_id", env.PromiseID).
				Str("keyring_type", t.String()).
				Str("method", method).
				Dur("timeout", c.timeout).
				Msg("No result within boundary timeout")
			return ResultEnvelope{}, errors.Wrapf(bridgeerr.ErrBoundaryTimeout, "%s.%s after %s", t, method, c.timeout)
		}
	}
}

// Send routes a result to its waiting caller.
func (c *Client) Send(_ context.Context, result ResultEnvelope) error {
	c.mu.Lock()
	ch, ok := c.pending[result.PromiseID]
	if ok {
		delete(c.pending, result.PromiseID)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug().Str("promise_id", result.PromiseID).Msg("Dropping unroutable result envelope")
		return nil
	}

	ch <- result
	return nil
}

// Pending returns the number of in-flight calls.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

func (c *Client) register(promiseID string) chan ResultEnvelope {
	ch := make(chan ResultEnvelope, 1)

	c.mu.Lock()
	c.pending[promiseID] = ch
	c.mu.Unlock()

	return ch
}

func (c *Client) unregister(promiseID string) {
	c.mu.Lock()
	delete(c.pending, promiseID)
	c.mu.Unlock()
}
