// Package overlay wraps the external rendering subsystem that displays the
// module's content.
//
// The Proxy owns one Renderer for the lifetime of an activation. It is
// started once, disposed any number of times, and relays the renderer's
// diagnostics to subscribers unchanged.
package overlay

import (
	"errors"

	"github.com/dshills/enmity/internal/config"
	"github.com/dshills/enmity/internal/logbuf"
)

// Proxy errors.
var (
	// ErrAlreadyStarted is returned by Start on a proxy that was started.
	ErrAlreadyStarted = errors.New("overlay already started")

	// ErrDisposed is returned by Start after Dispose.
	ErrDisposed = errors.New("overlay disposed")

	// ErrNoEngine is returned by Start when the proxy has no engine.
	ErrNoEngine = errors.New("overlay engine is nil")
)

// Geometry is the live placement of the overlay.
type Geometry struct {
	Position  config.Point
	Size      config.Size
	IsVisible bool
}

// GeometryOf returns the geometry described by settings.
func GeometryOf(s config.OverlayConfig) Geometry {
	return Geometry{Position: s.Position, Size: s.Size, IsVisible: s.IsVisible}
}

// Apply copies g into s.
func (g Geometry) Apply(s *config.OverlayConfig) {
	s.Position = g.Position
	s.Size = g.Size
	s.IsVisible = g.IsVisible
}

// Event is a diagnostic message emitted by a renderer.
type Event struct {
	Level   logbuf.Level
	Message string
}

// Engine is the rendering subsystem.
type Engine interface {
	// NewRenderer creates a renderer for settings. Diagnostics are passed
	// to emit, possibly from another goroutine.
	NewRenderer(settings config.OverlayConfig, emit func(Event)) (Renderer, error)

	// Shutdown stops the subsystem. It must be safe to call more than once
	// and before any renderer was created.
	Shutdown()
}

// Renderer is one overlay surface.
type Renderer interface {
	Start() error
	Close() error
	Geometry() Geometry
	SetVisible(visible bool)

	// Move shifts the surface by dx, dy cells.
	Move(dx, dy int)

	// Resize grows or shrinks the surface by dw, dh cells.
	Resize(dw, dh int)
}
