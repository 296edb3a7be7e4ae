package keyring

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
)

var (
	ErrKeyringNil    = errors.New("keyring is nil")
	ErrKeyringExists = errors.New("keyring type already registered")
)

type callKey struct {
	keyringType Type
	method      string
}

// Registry owns exactly one keyring per type and the static dispatch table built from them.
// It is immutable after construction.
type Registry struct {
	keyrings map[Type]Keyring
	table    map[callKey]Method
}

// NewRegistry registers the given keyrings and builds the dispatch table.
func NewRegistry(keyrings ...Keyring) (*Registry, error) {
	r := &Registry{
		keyrings: make(map[Type]Keyring, len(keyrings)),
		table:    make(map[callKey]Method),
	}

	for _, kr := range keyrings {
		if err := r.register(kr); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) register(kr Keyring) error {
	if kr == nil {
		return ErrKeyringNil
	}

	t := kr.Type()
	if _, ok := r.keyrings[t]; ok {
		return errors.Wrapf(ErrKeyringExists, "%s", t)
	}
	r.keyrings[t] = kr

	for name, method := range kr.Methods() {
		if method == nil {
			return errors.Errorf("keyring %s declares nil method %q", t, name)
		}
		r.table[callKey{keyringType: t, method: name}] = method
	}

	// keyrings with a setup step can always be initialized explicitly
	if initializer, ok := kr.(Initializer); ok {
		key := callKey{keyringType: t, method: MethodInit}
		if _, declared := r.table[key]; !declared {
			r.table[key] = func(ctx context.Context, _ []any) (any, error) {
				return nil, initializer.Init(ctx)
			}
		}
	}

	return nil
}

// Get returns the keyring registered for t.
//
//nolint:ireturn // the registry is polymorphic over keyring families
func (r *Registry) Get(t Type) (Keyring, error) {
	kr, ok := r.keyrings[t]
	if !ok {
		return nil, bridgeerr.UnknownKeyringType(string(t))
	}

	return kr, nil
}

// Lookup returns the handler for (t, method).
func (r *Registry) Lookup(t Type, method string) (Method, error) {
	if _, ok := r.keyrings[t]; !ok {
		return nil, bridgeerr.UnknownKeyringType(string(t))
	}

	handler, ok := r.table[callKey{keyringType: t, method: method}]
	if !ok {
		return nil, bridgeerr.MethodNotSupported(string(t), method)
	}

	return handler, nil
}

// List returns the registered types in deterministic order.
func (r *Registry) List() []Type {
	types := make([]Type, 0, len(r.keyrings))
	for t := range r.keyrings {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})

	return types
}

// MethodNames returns the sorted method vocabulary of t.
func (r *Registry) MethodNames(t Type) []string {
	names := []string{}
	for key := range r.table {
		if key.keyringType == t {
			names = append(names, key.method)
		}
	}
	sort.Strings(names)

	return names
}

// Each calls fn for every registered keyring in List order.
func (r *Registry) Each(fn func(Keyring)) {
	for _, t := range r.List() {
		fn(r.keyrings[t])
	}
}
