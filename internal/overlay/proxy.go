package overlay

import (
	"fmt"
	"sync"

	"github.com/dshills/enmity/internal/config"
)

// Proxy is the lifecycle wrapper around a single Renderer.
type Proxy struct {
	mu       sync.Mutex
	engine   Engine
	settings config.OverlayConfig
	renderer Renderer
	disposed bool

	subMu   sync.RWMutex
	subs    map[uint64]func(Event)
	nextSub uint64
}

// NewProxy creates a proxy that will render settings on engine.
// Nothing is created until Start.
func NewProxy(engine Engine, settings config.OverlayConfig) *Proxy {
	return &Proxy{
		engine:   engine,
		settings: settings,
		subs:     make(map[uint64]func(Event)),
	}
}

// Subscribe registers fn to receive renderer diagnostics. The returned
// function cancels the subscription.
func (p *Proxy) Subscribe(fn func(Event)) (cancel func()) {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
		})
	}
}

func (p *Proxy) emit(e Event) {
	p.subMu.RLock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Start creates and starts the renderer. It may be called once.
func (p *Proxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.disposed:
		return ErrDisposed
	case p.renderer != nil:
		return ErrAlreadyStarted
	case p.engine == nil:
		return ErrNoEngine
	}

	r, err := p.engine.NewRenderer(p.settings, p.emit)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	if err := r.Start(); err != nil {
		_ = r.Close()
		return fmt.Errorf("start renderer: %w", err)
	}
	p.renderer = r
	return nil
}

// Started reports whether a renderer is running.
func (p *Proxy) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer != nil
}

// Geometry returns the live geometry, or the configured geometry when the
// renderer is not running.
func (p *Proxy) Geometry() Geometry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer != nil {
		return p.renderer.Geometry()
	}
	return GeometryOf(p.settings)
}

// SetVisible shows or hides the overlay.
func (p *Proxy) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings.IsVisible = visible
	if p.renderer != nil {
		p.renderer.SetVisible(visible)
	}
}

// Move shifts the running overlay. It does nothing before Start or after
// Dispose.
func (p *Proxy) Move(dx, dy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer != nil {
		p.renderer.Move(dx, dy)
	}
}

// Resize grows or shrinks the running overlay. It does nothing before Start
// or after Dispose.
func (p *Proxy) Resize(dw, dh int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer != nil {
		p.renderer.Resize(dw, dh)
	}
}

// Dispose closes the renderer. It is safe to call without Start and more
// than once; only the first call can return an error.
func (p *Proxy) Dispose() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return nil
	}
	p.disposed = true

	if p.renderer == nil {
		return nil
	}
	r := p.renderer
	p.renderer = nil
	if err := r.Close(); err != nil {
		return fmt.Errorf("close renderer: %w", err)
	}
	return nil
}
