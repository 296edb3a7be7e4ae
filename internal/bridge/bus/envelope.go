package bus

import (
	"encoding/json"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Result outcome of a call.
type Result string

const (
	ResultResolve Result = "resolve"
	ResultReject  Result = "reject"
)

// CallEnvelope is the inbound request crossing the boundary. PromiseID is
// generated by the caller and unique per in-flight call.
type CallEnvelope struct {
	Type      keyring.Type  `json:"type"`
	Method    string        `json:"method"`
	Args      []any         `json:"args"`
	PrevState keyring.State `json:"prevState"`
	PromiseID string        `json:"promiseId"`
}

// Validate checks the fields the dispatcher relies on.
func (e CallEnvelope) Validate() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(strings.TrimSpace(e.PromiseID), "promiseId"),
		vala.StringNotEmpty(strings.TrimSpace(string(e.Type)), "type"),
		vala.StringNotEmpty(strings.TrimSpace(e.Method), "method"),
	).Check()
	if err != nil {
		return errors.Wrap(bridgeerr.ErrInvalidEnvelope, err.Error())
	}

	return nil
}

// ResolvedData is the payload of a resolved result.
type ResolvedData struct {
	NewState keyring.State `json:"newState"`
	Response any           `json:"response"`
}

// ResultEnvelope is the outbound response, produced exactly once per CallEnvelope.
// Data is ResolvedData on resolve and the error descriptor string on reject.
type ResultEnvelope struct {
	PromiseID string `json:"promiseId"`
	Result    Result `json:"result"`
	Data      any    `json:"data"`
}

// Resolve builds a resolved result.
func Resolve(promiseID string, newState keyring.State, response any) ResultEnvelope {
	return ResultEnvelope{
		PromiseID: promiseID,
		Result:    ResultResolve,
		Data: ResolvedData{
			NewState: newState,
			Response: response,
		},
	}
}

// Reject builds a rejected result with the descriptor derived from err.
func Reject(promiseID string, err error) ResultEnvelope {
	return ResultEnvelope{
		PromiseID: promiseID,
		Result:    ResultReject,
		Data:      bridgeerr.DescribeError(err),
	}
}

func (r ResultEnvelope) Resolved() bool {
	return r.Result == ResultResolve
}

// ErrorMessage returns the descriptor of a rejected result.
func (r ResultEnvelope) ErrorMessage() string {
	if r.Result != ResultReject {
		return ""
	}
	if msg, ok := r.Data.(string); ok {
		return msg
	}
	return ""
}

// ResolvedData returns the payload of a resolved result.
func (r ResultEnvelope) ResolvedData() (ResolvedData, bool) {
	if r.Result != ResultResolve {
		return ResolvedData{}, false
	}

	switch d := r.Data.(type) {
	case ResolvedData:
		return d, true
	case *ResolvedData:
		return *d, d != nil
	}

	return ResolvedData{}, false
}

// UnmarshalJSON decodes Data into ResolvedData or a string according to Result.
func (r *ResultEnvelope) UnmarshalJSON(b []byte) error {
	var raw struct {
		PromiseID string          `json:"promiseId"`
		Result    Result          `json:"result"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	r.PromiseID = raw.PromiseID
	r.Result = raw.Result
	r.Data = nil

	switch raw.Result {
	case ResultResolve:
		var data ResolvedData
		if len(raw.Data) > 0 {
			if err := json.Unmarshal(raw.Data, &data); err != nil {
				return errors.Wrap(err, "failed to decode resolved data")
			}
		}
		r.Data = data
	case ResultReject:
		var msg string
		if err := json.Unmarshal(raw.Data, &msg); err != nil {
			// non-string descriptors are kept verbatim
			msg = string(raw.Data)
		}
		r.Data = msg
	default:
		return errors.Errorf("unknown result %q", raw.Result)
	}

	return nil
}
