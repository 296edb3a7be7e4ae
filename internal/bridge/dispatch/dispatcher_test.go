package dispatch_test

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/dispatch"
	"github/chapool/hw-bridge/internal/bridge/initializer"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/bridge/keyring/keyringtest"
	"github/chapool/hw-bridge/internal/bridge/state"
	"github/chapool/hw-bridge/internal/bridge/transform"
)

type fixture struct {
	dispatcher  *dispatch.Dispatcher
	tracker     *initializer.Tracker
	transformer *transform.Transformer
}

func newFixture(t *testing.T, keyrings []keyring.Keyring, opts ...dispatch.Option) fixture {
	t.Helper()

	registry, err := keyring.NewRegistry(keyrings...)
	require.NoError(t, err)

	tracker := initializer.NewTracker(zerolog.Nop(), nil)
	transformer := transform.NewTransformer()

	return fixture{
		dispatcher:  dispatch.New(registry, tracker, state.NewSynchronizer(), transformer, zerolog.Nop(), opts...),
		tracker:     tracker,
		transformer: transformer,
	}
}

func echoArgs(_ context.Context, args []any) (any, error) {
	return args, nil
}

func TestUnknownKeyringTypeNeverReachesTransformer(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{"signTransaction": echoArgs})
	f := newFixture(t, []keyring.Keyring{fake})

	var encoded atomic.Int32
	f.transformer.Register("signTransaction", transform.Codec{
		EncodeArgs: func(args []any) ([]any, error) {
			encoded.Add(1)
			return args, nil
		},
	})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{
		Type:      "nonexistent",
		Method:    "signTransaction",
		Args:      []any{"0x00"},
		PromiseID: "p-unknown",
	})

	assert.Equal(t, "p-unknown", res.PromiseID)
	assert.Equal(t, bus.ResultReject, res.Result)
	assert.Contains(t, res.ErrorMessage(), "unknown keyring type")
	assert.Equal(t, int32(0), encoded.Load())
	assert.Equal(t, int32(0), fake.Restores.Load())
	assert.Equal(t, int32(0), fake.Invocations.Load())
}

func TestMethodNotSupported(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeQR, nil)
	f := newFixture(t, []keyring.Keyring{fake})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeQR, Method: "makeApp", PromiseID: "p1"})
	assert.Equal(t, bus.ResultReject, res.Result)
	assert.Equal(t, "qr.makeApp: method not supported", res.ErrorMessage())
	assert.Equal(t, int32(0), fake.Restores.Load())
}

func TestInitRunsAtMostOnce(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{"getPublicKey": echoArgs})
	kr := fake.WithInit()
	f := newFixture(t, []keyring.Keyring{kr})

	methods := []string{"getPublicKey", keyring.MethodInit, "getPublicKey", keyring.MethodInit, "getPublicKey"}
	for i, method := range methods {
		res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{
			Type:      keyring.TypeTrezor,
			Method:    method,
			PromiseID: "p" + string(rune('0'+i)),
		})
		require.True(t, res.Resolved(), res.ErrorMessage())
	}

	assert.Equal(t, int32(1), fake.InitCalls.Load())
	assert.True(t, f.tracker.IsInitialized(keyring.TypeTrezor))
}

func TestInitCallIsTheCallItself(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{"getPublicKey": echoArgs})
	kr := fake.WithInit()
	f := newFixture(t, []keyring.Keyring{kr})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: keyring.MethodInit, PromiseID: "p-init"})
	require.True(t, res.Resolved())
	assert.Equal(t, int32(1), fake.InitCalls.Load())

	res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "getPublicKey", PromiseID: "p-next"})
	require.True(t, res.Resolved())
	assert.Equal(t, int32(1), fake.InitCalls.Load())
}

func TestFailedInitIsRejectedAndNotRetried(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{"getPublicKey": echoArgs})
	fake.InitFunc = func(context.Context) error {
		return bridgeerr.NewDeviceTransportError("trezor", bridgeerr.MessageFailedToOpenDev)
	}
	f := newFixture(t, []keyring.Keyring{fake.WithInit()})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "getPublicKey", PromiseID: "p1"})
	assert.Equal(t, "Failed to open the device", res.ErrorMessage())
	assert.Equal(t, int32(0), fake.Invocations.Load())

	res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "getPublicKey", PromiseID: "p2"})
	assert.True(t, res.Resolved())
	assert.Equal(t, int32(1), fake.InitCalls.Load())
}

func TestRestoreAlwaysPrecedesInvoke(t *testing.T) {
	var seen []string
	var fake *keyringtest.Fake
	fake = keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{
		"unlock": func(_ context.Context, _ []any) (any, error) {
			st, err := fake.Serialize()
			if err != nil {
				return nil, err
			}
			seen = append(seen, string(st))
			return nil, fake.SetField("unlocked", true)
		},
	})
	f := newFixture(t, []keyring.Keyring{fake})

	for _, prev := range []string{`{"n":1}`, `{"n":2}`} {
		res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{
			Type:      keyring.TypeLedger,
			Method:    "unlock",
			PrevState: keyring.State(prev),
			PromiseID: prev,
		})
		require.True(t, res.Resolved())

		data, ok := res.ResolvedData()
		require.True(t, ok)
		assert.JSONEq(t, prev[:len(prev)-1]+`,"unlocked":true}`, string(data.NewState))
	}

	// the mutation of the first call never leaks into the second
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, seen)
}

func TestStateRoundTripForNoopMethod(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeLattice, map[string]keyring.Method{
		"noop": func(context.Context, []any) (any, error) { return nil, nil },
	})
	f := newFixture(t, []keyring.Keyring{fake})

	prev := keyring.State(`{"creds":{"deviceID":"abc"},"accounts":["0x1"]}`)
	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeLattice, Method: "noop", PrevState: prev, PromiseID: "p1"})

	data, ok := res.ResolvedData()
	require.True(t, ok)
	assert.True(t, prev.Equal(data.NewState))
}

func TestRestoreFailureShortCircuits(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{"unlock": echoArgs})
	fake.DeserializeE = errors.New("corrupt state")
	f := newFixture(t, []keyring.Keyring{fake.WithInit()})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeLedger, Method: "unlock", PromiseID: "p1"})
	assert.Equal(t, bus.ResultReject, res.Result)
	assert.Contains(t, res.ErrorMessage(), "corrupt state")
	assert.Equal(t, int32(0), fake.Invocations.Load())
	assert.Equal(t, int32(0), fake.InitCalls.Load())
}

func TestPanickingInitIsRejected(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{"getPublicKey": echoArgs})
	fake.InitFunc = func(context.Context) error {
		panic("device vanished")
	}
	f := newFixture(t, []keyring.Keyring{fake.WithInit()})

	var res bus.ResultEnvelope
	require.NotPanics(t, func() {
		res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "getPublicKey", PromiseID: "p1"})
	})
	assert.Equal(t, "p1", res.PromiseID)
	assert.Equal(t, bus.ResultReject, res.Result)
	assert.Equal(t, "device vanished", res.ErrorMessage())
	assert.Equal(t, int32(0), fake.Invocations.Load())

	// the type lock was released and init is not attempted again
	assert.False(t, f.dispatcher.Locked(keyring.TypeTrezor))
	res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "getPublicKey", PromiseID: "p2"})
	assert.True(t, res.Resolved())
	assert.Equal(t, int32(1), fake.InitCalls.Load())
}

// panickingStateKeyring panics from the selected state hook.
type panickingStateKeyring struct {
	*keyringtest.Fake
	onDeserialize bool
	onSerialize   bool
}

func (k *panickingStateKeyring) Deserialize(st keyring.State) error {
	if k.onDeserialize {
		panic(errors.New("state decoder crashed"))
	}
	return k.Fake.Deserialize(st)
}

func (k *panickingStateKeyring) Serialize() (keyring.State, error) {
	if k.onSerialize {
		panic("state encoder crashed")
	}
	return k.Fake.Serialize()
}

func TestPanickingStateHooksAreRejected(t *testing.T) {
	tests := []struct {
		name string
		kr   *panickingStateKeyring
		want string
	}{
		{
			name: "deserialize",
			kr:   &panickingStateKeyring{Fake: keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{"unlock": echoArgs}), onDeserialize: true},
			want: "state decoder crashed",
		},
		{
			name: "serialize",
			kr:   &panickingStateKeyring{Fake: keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{"unlock": echoArgs}), onSerialize: true},
			want: "state encoder crashed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var phases []dispatch.Phase
			f := newFixture(t, []keyring.Keyring{tt.kr}, dispatch.WithPhaseHook(func(_ bus.CallEnvelope, p dispatch.Phase) {
				phases = append(phases, p)
			}))

			var res bus.ResultEnvelope
			require.NotPanics(t, func() {
				res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeLedger, Method: "unlock", PromiseID: "p1"})
			})
			assert.Equal(t, "p1", res.PromiseID)
			assert.Equal(t, tt.want, res.ErrorMessage())
			require.NotEmpty(t, phases)
			assert.Equal(t, dispatch.PhaseReported, phases[len(phases)-1])
			assert.Contains(t, phases, dispatch.PhaseFailed)
			assert.False(t, f.dispatcher.Locked(keyring.TypeLedger))
		})
	}
}

func TestFailedDeviceOpenScenario(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{
		"unlock": func(context.Context, []any) (any, error) {
			return nil, errors.New("Failed to open the device")
		},
	})
	f := newFixture(t, []keyring.Keyring{fake})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeLedger, Method: "unlock", PromiseID: "p-open"})
	assert.Equal(t, bus.ResultEnvelope{PromiseID: "p-open", Result: bus.ResultReject, Data: "Failed to open the device"}, res)
}

type causeOnlyError struct{ cause error }

func (e causeOnlyError) Error() string { return "" }
func (e causeOnlyError) Cause() error  { return e.cause }

func TestErrorFallbackChain(t *testing.T) {
	fake := keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{
		"signMessage": func(context.Context, []any) (any, error) {
			return nil, causeOnlyError{cause: errors.New("device locked")}
		},
		"panics": func(context.Context, []any) (any, error) {
			panic("transport exploded")
		},
	})
	f := newFixture(t, []keyring.Keyring{fake})

	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "signMessage", Args: []any{"m/0", "hi"}, PromiseID: "p1"})
	assert.Equal(t, "device locked", res.ErrorMessage())

	res = f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeTrezor, Method: "panics", PromiseID: "p2"})
	assert.Equal(t, "p2", res.PromiseID)
	assert.Equal(t, "transport exploded", res.ErrorMessage())
}

func TestSignTransactionRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	var gotPath any
	fake := keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{
		"signTransaction": func(_ context.Context, args []any) (any, error) {
			gotPath = args[0]
			tx, ok := args[1].(*types.Transaction)
			if !ok {
				return nil, errors.Errorf("expected structured transaction, got %T", args[1])
			}
			return types.SignTx(tx, types.LatestSignerForChainID(tx.ChainId()), key)
		},
	})
	f := newFixture(t, []keyring.Keyring{fake})

	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(11155111),
		Nonce:     1,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(100),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(10),
	})
	raw, err := unsigned.MarshalBinary()
	require.NoError(t, err)

	prev := keyring.State(`{"hdPath":"m/44'/60'/0'","accounts":[]}`)
	res := f.dispatcher.Handle(t.Context(), bus.CallEnvelope{
		Type:      keyring.TypeLedger,
		Method:    "signTransaction",
		Args:      []any{"m/44'/60'/0'/0/0", hexutil.Encode(raw)},
		PrevState: prev,
		PromiseID: "p1",
	})

	require.True(t, res.Resolved(), res.ErrorMessage())
	assert.Equal(t, "p1", res.PromiseID)
	assert.Equal(t, "m/44'/60'/0'/0/0", gotPath)

	data, ok := res.ResolvedData()
	require.True(t, ok)
	assert.True(t, prev.Equal(data.NewState))

	signedHex, ok := data.Response.(string)
	require.True(t, ok)
	require.Regexp(t, "^0x[0-9a-f]+$", signedHex)

	signedRaw, err := hexutil.Decode(signedHex)
	require.NoError(t, err)
	signed := new(types.Transaction)
	require.NoError(t, signed.UnmarshalBinary(signedRaw))

	sender, err := types.Sender(types.LatestSignerForChainID(signed.ChainId()), signed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), sender)
	assert.Equal(t, unsigned.Nonce(), signed.Nonce())
}

// windowKeyring tracks overlapping restore→invoke→snapshot windows.
type windowKeyring struct {
	kt      keyring.Type
	active  *atomic.Int32
	maxSeen *atomic.Int32
	state   keyring.State
}

func (w *windowKeyring) Type() keyring.Type { return w.kt }

func (w *windowKeyring) Deserialize(s keyring.State) error {
	n := w.active.Add(1)
	for {
		m := w.maxSeen.Load()
		if n <= m || w.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	w.state = s
	return nil
}

func (w *windowKeyring) Serialize() (keyring.State, error) {
	w.active.Add(-1)
	return w.state, nil
}

func (w *windowKeyring) Methods() map[string]keyring.Method {
	return map[string]keyring.Method{
		"work": func(context.Context, []any) (any, error) {
			time.Sleep(5 * time.Millisecond)
			return nil, nil
		},
	}
}

func TestSameTypeCallsAreSerialized(t *testing.T) {
	var active, maxSeen atomic.Int32
	kr := &windowKeyring{kt: keyring.TypeLedger, active: &active, maxSeen: &maxSeen}
	f := newFixture(t, []keyring.Keyring{kr})

	var wg sync.WaitGroup
	results := make(chan bus.ResultEnvelope, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.dispatcher.Handle(context.Background(), bus.CallEnvelope{
				Type:      keyring.TypeLedger,
				Method:    "work",
				PromiseID: "p" + string(rune('a'+i)),
			})
		}()
	}
	wg.Wait()
	close(results)

	ids := map[string]struct{}{}
	for res := range results {
		assert.True(t, res.Resolved())
		ids[res.PromiseID] = struct{}{}
	}
	assert.Len(t, ids, 16)
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestDifferentTypesOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan keyring.Type, 2)

	blocking := func(kt keyring.Type) keyring.Method {
		return func(context.Context, []any) (any, error) {
			entered <- kt
			<-release
			return string(kt), nil
		}
	}

	f := newFixture(t, []keyring.Keyring{
		keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{"work": blocking(keyring.TypeLedger)}),
		keyringtest.NewFake(keyring.TypeTrezor, map[string]keyring.Method{"work": blocking(keyring.TypeTrezor)}),
	})

	var wg sync.WaitGroup
	for _, kt := range []keyring.Type{keyring.TypeLedger, keyring.TypeTrezor} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.dispatcher.Handle(context.Background(), bus.CallEnvelope{Type: kt, Method: "work", PromiseID: string(kt)})
			assert.True(t, res.Resolved())
		}()
	}

	// both invocations are in flight at the same time
	got := map[keyring.Type]bool{}
	for range 2 {
		select {
		case kt := <-entered:
			got[kt] = true
		case <-time.After(2 * time.Second):
			t.Fatal("calls for different keyring types did not overlap")
		}
	}
	assert.True(t, f.dispatcher.Locked(keyring.TypeLedger))
	assert.True(t, f.dispatcher.Locked(keyring.TypeTrezor))

	close(release)
	wg.Wait()
	assert.Len(t, got, 2)
	assert.False(t, f.dispatcher.Locked(keyring.TypeLedger))
}

func TestCancelledWhileWaitingForLock(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fake := keyringtest.NewFake(keyring.TypeLedger, map[string]keyring.Method{
		"work": func(context.Context, []any) (any, error) {
			close(entered)
			<-release
			return nil, nil
		},
	})
	f := newFixture(t, []keyring.Keyring{fake})

	done := make(chan bus.ResultEnvelope)
	go func() {
		done <- f.dispatcher.Handle(context.Background(), bus.CallEnvelope{Type: keyring.TypeLedger, Method: "work", PromiseID: "first"})
	}()
	<-entered

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	res := f.dispatcher.Handle(ctx, bus.CallEnvelope{Type: keyring.TypeLedger, Method: "work", PromiseID: "second"})
	assert.Equal(t, "second", res.PromiseID)
	assert.Equal(t, bus.ResultReject, res.Result)
	assert.Contains(t, res.ErrorMessage(), "context canceled")

	close(release)
	assert.True(t, (<-done).Resolved())
}

func TestPhaseSequence(t *testing.T) {
	var mu sync.Mutex
	phases := map[string][]dispatch.Phase{}
	hook := dispatch.WithPhaseHook(func(env bus.CallEnvelope, p dispatch.Phase) {
		mu.Lock()
		defer mu.Unlock()
		phases[env.PromiseID] = append(phases[env.PromiseID], p)
	})

	fake := keyringtest.NewFake(keyring.TypeQR, map[string]keyring.Method{
		"getPublicKey": echoArgs,
		"fail": func(context.Context, []any) (any, error) {
			return nil, errors.New("camera unavailable")
		},
	})
	f := newFixture(t, []keyring.Keyring{fake}, hook)

	f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeQR, Method: "getPublicKey", PromiseID: "ok"})
	f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeQR, Method: "fail", PromiseID: "bad"})
	f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: "nope", Method: "fail", PromiseID: "unknown"})

	assert.Equal(t, []dispatch.Phase{
		dispatch.PhaseReceived,
		dispatch.PhaseStateRestored,
		dispatch.PhaseInitialized,
		dispatch.PhaseInvoking,
		dispatch.PhaseSucceeded,
		dispatch.PhaseReported,
	}, phases["ok"])
	assert.Equal(t, []dispatch.Phase{
		dispatch.PhaseReceived,
		dispatch.PhaseStateRestored,
		dispatch.PhaseInitialized,
		dispatch.PhaseInvoking,
		dispatch.PhaseFailed,
		dispatch.PhaseReported,
	}, phases["bad"])
	assert.Equal(t, []dispatch.Phase{
		dispatch.PhaseReceived,
		dispatch.PhaseFailed,
		dispatch.PhaseReported,
	}, phases["unknown"])
	assert.True(t, dispatch.PhaseReported.Terminal())
	assert.False(t, dispatch.PhaseInvoking.Terminal())
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []bus.Result
	waits int
}

func (o *recordingObserver) ObserveCall(_ keyring.Type, _ string, result bus.Result, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, result)
}

func (o *recordingObserver) ObserveLockWait(keyring.Type, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits++
}

func TestObserver(t *testing.T) {
	observer := &recordingObserver{}
	fake := keyringtest.NewFake(keyring.TypeQR, map[string]keyring.Method{"getPublicKey": echoArgs})
	f := newFixture(t, []keyring.Keyring{fake}, dispatch.WithObserver(observer))

	f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: keyring.TypeQR, Method: "getPublicKey", PromiseID: "p1"})
	f.dispatcher.Handle(t.Context(), bus.CallEnvelope{Type: "nope", Method: "getPublicKey", PromiseID: "p2"})

	assert.Equal(t, []bus.Result{bus.ResultResolve, bus.ResultReject}, observer.calls)
	assert.Equal(t, 1, observer.waits)
}
