// Package port carries call and result envelopes over a websocket connection,
// the long-lived counterpart of the request/response call endpoint.
package port

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
)

const (
	writeWait = 10 * time.Second
)

var ErrClosed = errors.New("port closed")

// Port is one end of a websocket connection. Writes are serialized, reads
// happen on a single loop (Serve or Receive).
type Port struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func New(conn *websocket.Conn, log zerolog.Logger) *Port {
	return &Port{
		conn:   conn,
		log:    log.With().Str("component", "port").Str("remote", conn.RemoteAddr().String()).Logger(),
		closed: make(chan struct{}),
	}
}

// Dial connects to the port endpoint of a running bridge.
func Dial(ctx context.Context, url string, header http.Header, log zerolog.Logger) (*Port, error) {
	conn, res, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}

	return New(conn, log), nil
}

// Deliver writes a call envelope, making the port a bus.Transport.
func (p *Port) Deliver(_ context.Context, env bus.CallEnvelope) error {
	return p.write(env)
}

// Send writes a result envelope, making the port a bus.Sender.
func (p *Port) Send(_ context.Context, result bus.ResultEnvelope) error {
	return p.write(result)
}

func (p *Port) write(v any) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}

	if err := p.conn.WriteJSON(v); err != nil {
		return errors.Wrap(err, "failed to write envelope")
	}

	return nil
}

// Serve reads call envelopes until the connection closes. Each envelope is
// handled in its own goroutine so that calls for different keyring types
// overlap; the handler serializes calls of one type. Serve waits for
// in-flight calls before returning.
func (p *Port) Serve(ctx context.Context, handler bus.Handler) error {
	adapter := bus.NewAdapter(handler, p, p.log)

	var wg sync.WaitGroup
	defer wg.Wait()

	return p.readLoop(func(raw []byte) {
		var env bus.CallEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			p.rejectUndecodable(ctx, raw, err)
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := adapter.OnCallEnvelope(ctx, env); err != nil {
				p.log.Debug().Err(err).Msg("Result envelope not delivered")
			}
		}()
	})
}

// rejectUndecodable settles a malformed call whose promiseId is still readable.
// Without a promiseId there is nothing to answer and the frame is dropped.
func (p *Port) rejectUndecodable(ctx context.Context, raw []byte, decodeErr error) {
	var head struct {
		PromiseID string `json:"promiseId"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || strings.TrimSpace(head.PromiseID) == "" {
		p.log.Warn().Err(decodeErr).Msg("Dropping undecodable call envelope")
		return
	}

	p.log.Warn().Err(decodeErr).Str("promise_id", head.PromiseID).Msg("Rejecting undecodable call envelope")

	reject := bus.Reject(head.PromiseID, errors.Wrap(bridgeerr.ErrInvalidEnvelope, decodeErr.Error()))
	if err := p.Send(ctx, reject); err != nil {
		p.log.Debug().Err(err).Str("promise_id", head.PromiseID).Msg("Result envelope not delivered")
	}
}

// Receive reads result envelopes until the connection closes and routes each to sender.
func (p *Port) Receive(ctx context.Context, sender bus.Sender) error {
	return p.readLoop(func(raw []byte) {
		var result bus.ResultEnvelope
		if err := json.Unmarshal(raw, &result); err != nil {
			p.log.Warn().Err(err).Msg("Dropping undecodable result envelope")
			return
		}

		if err := sender.Send(ctx, result); err != nil {
			p.log.Warn().Err(err).Str("promise_id", result.PromiseID).Msg("Failed to route result envelope")
		}
	})
}

func (p *Port) readLoop(fn func(raw []byte)) error {
	defer p.Close()

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			select {
			case <-p.closed:
				return nil
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "failed to read from port")
		}

		fn(raw)
	}
}

// Close sends a close frame and releases the connection. It is safe to call more than once.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.writeMu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		p.writeMu.Unlock()

		close(p.closed)
		err = p.conn.Close()
	})
	return err
}
