package termview

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/enmity/internal/logbuf"
	"github.com/dshills/enmity/internal/overlay"
)

// ErrRunning is returned by Start on a running view.
var ErrRunning = errors.New("view already running")

var (
	frameStyle = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	titleStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	bodyStyle  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// View is one overlay box.
type View struct {
	engine       *Engine
	emit         func(overlay.Event)
	url          *url.URL
	clickThrough bool
	interval     time.Duration

	mu      sync.Mutex
	geo     overlay.Geometry
	running bool
	closed  bool
	frames  int
	stop    chan struct{}
	done    chan struct{}
}

// Start draws the first frame and begins the frame loop.
func (v *View) Start() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrShutdown
	}
	if v.running {
		v.mu.Unlock()
		return ErrRunning
	}
	v.running = true
	v.stop = make(chan struct{})
	v.done = make(chan struct{})
	geo := v.geo
	v.mu.Unlock()

	v.emit(overlay.Event{
		Level:   logbuf.LevelInfo,
		Message: "Overlay: rendering " + v.url.String(),
	})
	v.emit(overlay.Event{
		Level:   logbuf.LevelDebug,
		Message: "Overlay: frame interval " + v.interval.String(),
	})
	if geo.Size.W < 2 || geo.Size.H < 2 {
		v.emit(overlay.Event{Level: logbuf.LevelWarning, Message: "Overlay: window too small to draw"})
	}

	v.draw()
	go v.loop()
	return nil
}

func (v *View) loop() {
	defer close(v.done)

	ticker := v.engine.clock.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stop:
			return
		case <-ticker.Chan():
			v.draw()
		}
	}
}

// Close stops the frame loop and erases the box. It is safe to call more
// than once.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	running := v.running
	v.running = false
	geo := v.geo
	v.mu.Unlock()

	if running {
		close(v.stop)
		<-v.done
	}
	v.clear(geo)
	v.engine.forget(v)

	v.emit(overlay.Event{Level: logbuf.LevelInfo, Message: "Overlay: closed"})
	return nil
}

// Geometry implements overlay.Renderer.
func (v *View) Geometry() overlay.Geometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.geo
}

// SetVisible implements overlay.Renderer.
func (v *View) SetVisible(visible bool) {
	v.mu.Lock()
	changed := v.geo.IsVisible != visible
	v.geo.IsVisible = visible
	geo := v.geo
	v.mu.Unlock()

	if !changed {
		return
	}
	if visible {
		v.draw()
	} else {
		v.clear(geo)
	}
}

// Move implements overlay.Renderer.
func (v *View) Move(dx, dy int) {
	v.mu.Lock()
	old := v.geo
	v.geo.Position.X += dx
	v.geo.Position.Y += dy
	v.mu.Unlock()

	v.clear(old)
	v.draw()
}

// Resize implements overlay.Renderer. The box never shrinks below 2x2.
func (v *View) Resize(dw, dh int) {
	v.mu.Lock()
	old := v.geo
	v.geo.Size.W = max(2, v.geo.Size.W+dw)
	v.geo.Size.H = max(2, v.geo.Size.H+dh)
	v.mu.Unlock()

	v.clear(old)
	v.draw()
}

// Frames returns the number of frames drawn.
func (v *View) Frames() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

func (v *View) draw() {
	v.mu.Lock()
	if v.closed || !v.geo.IsVisible {
		v.mu.Unlock()
		return
	}
	v.frames++
	geo := v.geo
	v.mu.Unlock()

	s := v.engine.screen
	x0, y0 := geo.Position.X, geo.Position.Y
	x1, y1 := x0+geo.Size.W-1, y0+geo.Size.H-1
	if x1 <= x0 || y1 <= y0 {
		return
	}

	for x := x0 + 1; x < x1; x++ {
		s.SetContent(x, y0, tcell.RuneHLine, nil, frameStyle)
		s.SetContent(x, y1, tcell.RuneHLine, nil, frameStyle)
	}
	for y := y0 + 1; y < y1; y++ {
		s.SetContent(x0, y, tcell.RuneVLine, nil, frameStyle)
		s.SetContent(x1, y, tcell.RuneVLine, nil, frameStyle)
		for x := x0 + 1; x < x1; x++ {
			s.SetContent(x, y, ' ', nil, bodyStyle)
		}
	}
	s.SetContent(x0, y0, tcell.RuneULCorner, nil, frameStyle)
	s.SetContent(x1, y0, tcell.RuneURCorner, nil, frameStyle)
	s.SetContent(x0, y1, tcell.RuneLLCorner, nil, frameStyle)
	s.SetContent(x1, y1, tcell.RuneLRCorner, nil, frameStyle)

	title := " Enmity "
	if v.clickThrough {
		title = " Enmity (click-through) "
	}
	putString(s, x0+1, y0, x1, title, titleStyle)
	putString(s, x0+1, y0+1, x1, v.url.String(), bodyStyle)

	s.Show()
}

func (v *View) clear(geo overlay.Geometry) {
	s := v.engine.screen
	for y := geo.Position.Y; y < geo.Position.Y+geo.Size.H; y++ {
		for x := geo.Position.X; x < geo.Position.X+geo.Size.W; x++ {
			s.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
	s.Show()
}

// putString writes text from x until limit, exclusive.
func putString(s tcell.Screen, x, y, limit int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= limit {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

var _ overlay.Renderer = (*View)(nil)
var _ overlay.Engine = (*Engine)(nil)

