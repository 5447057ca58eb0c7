package resolver

import (
	"sync"

	"github.com/google/uuid"
)

// Func is the signature of a fallback resolution hook.
type Func func(identifier string) (Module, bool)

// HookRegistry is the host's module loader, which consults registered hooks
// when its own search fails.
type HookRegistry interface {
	AddResolveHook(id string, fn Func) error
	RemoveResolveHook(id string)
}

// Registration is the token for a resolver installed in a HookRegistry.
// The hook stays installed until Unregister is called.
type Registration struct {
	id       string
	registry HookRegistry
	resolver *Resolver
	once     sync.Once
}

// Register installs r as a fallback hook in registry. A resolver can be
// registered at most once at a time.
func Register(registry HookRegistry, r *Resolver) (*Registration, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if !r.registered.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRegistered
	}

	id := uuid.NewString()
	if err := registry.AddResolveHook(id, r.Resolve); err != nil {
		r.registered.Store(false)
		return nil, err
	}

	r.log.Debug("registered as %s", id)
	return &Registration{id: id, registry: registry, resolver: r}, nil
}

// ID returns the hook identifier.
func (g *Registration) ID() string {
	return g.id
}

// Unregister removes the hook. Calling it more than once is a no-op.
func (g *Registration) Unregister() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		g.registry.RemoveResolveHook(g.id)
		g.resolver.registered.Store(false)
		g.resolver.log.Debug("unregistered %s", g.id)
	})
}
