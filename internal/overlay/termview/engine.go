// Package termview is an overlay engine that draws the overlay as a framed
// box on a tcell screen.
//
// Each view redraws itself at the configured frame rate until it is closed.
// The engine can be shut down from a process-exit hook while views are
// still open; Shutdown closes them and is safe to repeat.
package termview

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"

	"github.com/dshills/enmity/internal/config"
	"github.com/dshills/enmity/internal/overlay"
)

// ErrShutdown is returned when creating a view after Shutdown.
var ErrShutdown = errors.New("overlay engine is shut down")

// Engine implements overlay.Engine on a tcell screen.
type Engine struct {
	screen tcell.Screen
	clock  clockwork.Clock

	mu    sync.Mutex
	views map[*View]struct{}
	down  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving the frame loop.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// NewEngine creates an engine drawing on screen. The caller owns the
// screen's Init and Fini.
func NewEngine(screen tcell.Screen, opts ...Option) *Engine {
	e := &Engine{
		screen: screen,
		clock:  clockwork.NewRealClock(),
		views:  make(map[*View]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRenderer implements overlay.Engine.
func (e *Engine) NewRenderer(s config.OverlayConfig, emit func(overlay.Event)) (overlay.Renderer, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("overlay url: %w", err)
	}
	if emit == nil {
		emit = func(overlay.Event) {}
	}

	rate := s.MaxFrameRate
	if rate <= 0 {
		rate = config.DefaultMaxFrameRate
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.down {
		return nil, ErrShutdown
	}

	v := &View{
		engine:       e,
		emit:         emit,
		url:          u,
		clickThrough: s.IsClickThrough,
		interval:     time.Second / time.Duration(rate),
		geo:          overlay.GeometryOf(s),
	}
	e.views[v] = struct{}{}
	return v, nil
}

// Shutdown closes every open view. Later calls do nothing.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.down {
		e.mu.Unlock()
		return
	}
	e.down = true
	views := make([]*View, 0, len(e.views))
	for v := range e.views {
		views = append(views, v)
	}
	e.mu.Unlock()

	for _, v := range views {
		_ = v.Close()
	}
}

// Views returns the number of open views.
func (e *Engine) Views() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.views)
}

func (e *Engine) forget(v *View) {
	e.mu.Lock()
	delete(e.views, v)
	e.mu.Unlock()
}
