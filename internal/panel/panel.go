// Package panel draws the module's log panel: the most recent Log Buffer
// entries in a screen region, refreshed as entries are appended.
package panel

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/enmity/internal/config"
	"github.com/dshills/enmity/internal/logbuf"
)

// Rect is a screen region.
type Rect struct {
	X, Y, W, H int
}

var (
	headerStyle = tcell.StyleDefault.Bold(true).Underline(true)

	levelStyles = map[logbuf.Level]tcell.Style{
		logbuf.LevelTrace:   tcell.StyleDefault.Foreground(tcell.ColorGray),
		logbuf.LevelDebug:   tcell.StyleDefault.Foreground(tcell.ColorSilver),
		logbuf.LevelInfo:    tcell.StyleDefault,
		logbuf.LevelWarning: tcell.StyleDefault.Foreground(tcell.ColorYellow),
		logbuf.LevelError:   tcell.StyleDefault.Foreground(tcell.ColorRed),
	}
)

// Panel shows the log buffer in a screen region.
type Panel struct {
	screen tcell.Screen
	buf    *logbuf.Buffer
	header string

	mu     sync.Mutex
	rect   Rect
	closed bool
	cancel func()
}

// New creates a panel bound to cfg and draws it. The panel redraws on
// every retained append until Close.
func New(screen tcell.Screen, buf *logbuf.Buffer, cfg *config.Config, rect Rect) *Panel {
	p := &Panel{
		screen: screen,
		buf:    buf,
		header: "Log  (" + buf.Mode().String() + ")  overlay: " + cfg.Overlay.URL,
		rect:   rect,
	}
	p.cancel = buf.Subscribe(func(logbuf.Entry) { p.Draw() })
	p.Draw()
	return p
}

// Draw renders the header and as many recent entries as fit.
func (p *Panel) Draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.rect.H <= 0 || p.rect.W <= 0 {
		return
	}

	r := p.rect
	p.line(r.Y, p.header, headerStyle)

	rows := r.H - 1
	n := p.buf.Len()
	start := max(0, n-rows)
	entries := p.buf.Since(start)
	if len(entries) > rows {
		entries = entries[len(entries)-rows:]
	}
	for i := 0; i < rows; i++ {
		if i < len(entries) {
			e := entries[i]
			text := e.Time.Format("15:04:05") + " " + e.Level.String() + " " + e.Message
			p.line(r.Y+1+i, text, levelStyles[e.Level])
		} else {
			p.line(r.Y+1+i, "", tcell.StyleDefault)
		}
	}
	p.screen.Show()
}

// Resize moves the panel to rect and redraws it.
func (p *Panel) Resize(rect Rect) {
	p.mu.Lock()
	p.rect = rect
	p.mu.Unlock()
	p.Draw()
}

// Close stops refreshing and blanks the region.
func (p *Panel) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for y := p.rect.Y; y < p.rect.Y+p.rect.H; y++ {
		p.line(y, "", tcell.StyleDefault)
	}
	p.screen.Show()
	return nil
}

// line writes one clipped, padded row. The caller holds mu.
func (p *Panel) line(y int, text string, style tcell.Style) {
	x := p.rect.X
	end := p.rect.X + p.rect.W
	for _, ch := range text {
		if x >= end {
			break
		}
		if ch == '\n' || ch == '\t' {
			ch = ' '
		}
		p.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	for ; x < end; x++ {
		p.screen.SetContent(x, y, ' ', nil, style)
	}
}
