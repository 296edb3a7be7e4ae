package transform

import (
	"encoding"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Method names with registered transforms.
const (
	MethodSignTransaction     = "signTransaction"
	MethodSignPersonalMessage = "signPersonalMessage"
	MethodSignMessage         = "signMessage"
	MethodSignTypedData       = "signTypedData"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidHex      = errors.New("invalid hex argument")
)

// Codec shapes the arguments and result of one method. Nil funcs are identity.
type Codec struct {
	EncodeArgs   func(args []any) ([]any, error)
	DecodeResult func(raw any) (any, error)
}

// Transformer keeps the dispatcher method-agnostic: device libraries disagree
// on wire formats for the same logical operation, so conversions live here.
type Transformer struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewTransformer returns a transformer with the default codecs registered.
func NewTransformer() *Transformer {
	t := &Transformer{codecs: make(map[string]Codec)}

	t.Register(MethodSignTransaction, Codec{
		EncodeArgs:   encodeTransactionArg,
		DecodeResult: decodeBinaryResult,
	})

	messageCodec := Codec{
		EncodeArgs:   encodeMessageArg,
		DecodeResult: decodeBinaryResult,
	}
	t.Register(MethodSignPersonalMessage, messageCodec)
	t.Register(MethodSignMessage, messageCodec)

	t.Register(MethodSignTypedData, Codec{
		DecodeResult: decodeBinaryResult,
	})

	return t
}

// Register sets the codec for method, replacing any previous one.
func (t *Transformer) Register(method string, codec Codec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.codecs[method] = codec
}

func (t *Transformer) codec(method string) (Codec, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.codecs[method]
	return c, ok
}

// EncodeArgs converts caller arguments into what the device library expects.
// The input slice is never modified.
func (t *Transformer) EncodeArgs(method string, args []any) ([]any, error) {
	out := make([]any, len(args))
	copy(out, args)

	c, ok := t.codec(method)
	if !ok || c.EncodeArgs == nil {
		return out, nil
	}

	encoded, err := c.EncodeArgs(out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s arguments", method)
	}

	return encoded, nil
}

// DecodeResult converts a device result into its wire form.
func (t *Transformer) DecodeResult(method string, raw any) (any, error) {
	c, ok := t.codec(method)
	if !ok || c.DecodeResult == nil {
		return raw, nil
	}

	decoded, err := c.DecodeResult(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s result", method)
	}

	return decoded, nil
}

// encodeTransactionArg replaces the final argument, a hex-encoded transaction,
// with the structured transaction.
func encodeTransactionArg(args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrMissingArgument, "transaction")
	}

	last := len(args) - 1
	switch v := args[last].(type) {
	case *types.Transaction:
		return args, nil
	case string:
		raw, err := decodeHex(v)
		if err != nil {
			return nil, err
		}

		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode transaction")
		}
		args[last] = tx
		return args, nil
	default:
		return nil, errors.Errorf("unsupported transaction argument of type %T", v)
	}
}

// encodeMessageArg turns the final argument into raw message bytes.
// 0x-prefixed hex is decoded, anything else is taken as UTF-8 text.
func encodeMessageArg(args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrMissingArgument, "message")
	}

	last := len(args) - 1
	switch v := args[last].(type) {
	case []byte:
		return args, nil
	case string:
		if has0xPrefix(v) {
			raw, err := hexutil.Decode(v)
			if err != nil {
				return nil, errors.Wrap(ErrInvalidHex, err.Error())
			}
			args[last] = raw
			return args, nil
		}
		args[last] = []byte(v)
		return args, nil
	default:
		return nil, errors.Errorf("unsupported message argument of type %T", v)
	}
}

// decodeBinaryResult hex-encodes results with a binary serialization;
// anything else passes through unchanged.
func decodeBinaryResult(raw any) (any, error) {
	switch v := raw.(type) {
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize result")
		}
		return hexutil.Encode(b), nil
	case []byte:
		return hexutil.Encode(v), nil
	default:
		return raw, nil
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !has0xPrefix(s) {
		s = "0x" + s
	}

	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidHex, err.Error())
	}

	return raw, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
