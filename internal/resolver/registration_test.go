package resolver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu     sync.Mutex
	hooks  map[string]Func
	addErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{hooks: make(map[string]Func)}
}

func (r *fakeRegistry) AddResolveHook(id string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	r.hooks[id] = fn
	return nil
}

func (r *fakeRegistry) RemoveResolveHook(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, id)
}

func (r *fakeRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

func TestRegisterInstallsHook(t *testing.T) {
	f := newFixture(t)
	path := f.touch(t, "Foo.dll")
	reg := newFakeRegistry()

	g, err := Register(reg, f.r)
	require.NoError(t, err)
	require.NotEmpty(t, g.ID())
	require.Contains(t, reg.hooks, g.ID())

	mod, ok := reg.hooks[g.ID()]("Foo")
	require.True(t, ok)
	assert.Equal(t, path, mod.Path())
}

func TestRegisterTwice(t *testing.T) {
	f := newFixture(t)
	reg := newFakeRegistry()

	g, err := Register(reg, f.r)
	require.NoError(t, err)

	_, err = Register(reg, f.r)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, reg.len())

	g.Unregister()
	assert.Equal(t, 0, reg.len())

	g2, err := Register(reg, f.r)
	require.NoError(t, err)
	assert.NotEqual(t, g.ID(), g2.ID())
	g2.Unregister()
}

func TestUnregisterIdempotent(t *testing.T) {
	f := newFixture(t)
	reg := newFakeRegistry()

	g, err := Register(reg, f.r)
	require.NoError(t, err)

	g.Unregister()
	g.Unregister()
	assert.Equal(t, 0, reg.len())

	var nilReg *Registration
	assert.NotPanics(t, nilReg.Unregister)
}

func TestRegisterNilRegistry(t *testing.T) {
	f := newFixture(t)
	_, err := Register(nil, f.r)
	assert.ErrorIs(t, err, ErrNilRegistry)
}

func TestRegisterAddFailureReleasesResolver(t *testing.T) {
	f := newFixture(t)
	reg := newFakeRegistry()
	reg.addErr = errors.New("loader sealed")

	_, err := Register(reg, f.r)
	require.Error(t, err)

	reg.addErr = nil
	g, err := Register(reg, f.r)
	require.NoError(t, err)
	g.Unregister()
}
