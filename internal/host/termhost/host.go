// Package termhost is a terminal host for the module: a tcell screen with a
// title bar, a status line, a one-line error dialog and a Lua module loader.
//
// It implements host.Host so the module can be activated outside its native
// host application.
package termhost

import (
	"context"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/enmity/internal/host"
	"github.com/dshills/enmity/internal/input/key"
	"github.com/dshills/enmity/internal/logbuf"
	"github.com/dshills/enmity/internal/resolver"
)

// Rows reserved at the top of the screen.
const (
	titleRow  = 0
	statusRow = 1
	dialogRow = 2

	// HeaderRows is the number of rows the host draws itself.
	HeaderRows = 3
)

var (
	titleStyle  = tcell.StyleDefault.Reverse(true)
	focusStyle  = tcell.StyleDefault.Reverse(true).Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	dialogStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon)
)

var quitKey = key.MustParse("Ctrl+Q")

type keySub struct {
	id uint64
	fn host.KeyHandler
}

// Host implements host.Host on a tcell screen.
type Host struct {
	screen  tcell.Screen
	dataDir string
	loader  *Loader
	luaPath string
	log     *logbuf.Logger

	mu       sync.Mutex
	plugins  map[any]string
	keySubs  []keySub
	nextKey  uint64
	title    string
	status   string
	dialog   string
	focused  bool
	exitFns  []func()
	exitOnce sync.Once

	quit     chan struct{}
	quitOnce sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(l *logbuf.Logger) Option {
	return func(h *Host) {
		h.log = l
	}
}

// WithLuaPath sets package.path for the host's module loader.
func WithLuaPath(path string) Option {
	return func(h *Host) {
		h.luaPath = path
	}
}

// New creates a host drawing on screen. The caller owns the screen's Init
// and Fini.
func New(screen tcell.Screen, dataDir string, opts ...Option) *Host {
	h := &Host{
		screen:  screen,
		dataDir: dataDir,
		log:     logbuf.Discard,
		plugins: make(map[any]string),
		title:   "enmity",
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logbuf.Discard
	}
	h.loader = NewLoader(h.luaPath)
	h.log = h.log.WithComponent("Host")
	return h
}

// AddPlugin records that plugin was loaded from file.
func (h *Host) AddPlugin(plugin any, file string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plugins[plugin] = file
}

// PluginFile implements host.Host.
func (h *Host) PluginFile(plugin any) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	file, ok := h.plugins[plugin]
	return file, ok
}

// DataDir implements host.Host.
func (h *Host) DataDir() string {
	return h.dataDir
}

// Loader implements host.Host.
func (h *Host) Loader() resolver.HookRegistry {
	return h.loader
}

// Require loads a Lua module through the host's loader.
func (h *Host) Require(name string) (string, error) {
	v, err := h.loader.Require(name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// SubscribeKeys implements host.Host.
func (h *Host) SubscribeKeys(fn host.KeyHandler) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextKey
	h.nextKey++
	h.keySubs = append(h.keySubs, keySub{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.keySubs {
				if s.id == id {
					h.keySubs = append(h.keySubs[:i], h.keySubs[i+1:]...)
					return
				}
			}
		})
	}
}

// KeySubscribers returns the number of key subscribers.
func (h *Host) KeySubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keySubs)
}

// ShowError implements host.Host. The message is shown on the dialog row
// until Escape is pressed. It may be called from any goroutine.
func (h *Host) ShowError(title, message string) {
	text := title + ": " + strings.Join(strings.Fields(message), " ")
	h.log.Error("%s", text)

	h.mu.Lock()
	h.dialog = text
	h.mu.Unlock()
	h.Draw()
}

// Dialog returns the error currently shown, if any.
func (h *Host) Dialog() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dialog
}

// OnExit implements host.Host.
func (h *Host) OnExit(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exitFns = append(h.exitFns, fn)
}

// Surface returns the area handed to the module.
func (h *Host) Surface() host.Surface {
	return surface{h}
}

// Status returns the module's status label.
func (h *Host) Status() host.StatusLabel {
	return statusLabel{h}
}

// Focused reports whether the main window holds input focus.
func (h *Host) Focused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

// StatusText returns the module's status label text.
func (h *Host) StatusText() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// DispatchKey delivers ev to the key subscribers in subscription order
// until one consumes it. Unconsumed events are handled by the host itself.
// It returns true when a subscriber consumed the event.
func (h *Host) DispatchKey(ev key.Event) bool {
	h.mu.Lock()
	h.focused = false
	subs := make([]keySub, len(h.keySubs))
	copy(subs, h.keySubs)
	h.mu.Unlock()

	for _, s := range subs {
		if s.fn(ev) {
			h.Draw()
			return true
		}
	}

	switch {
	case ev.Key == key.KeyEscape && ev.Modifiers == key.ModNone:
		h.mu.Lock()
		h.dialog = ""
		h.mu.Unlock()
	case ev.Equals(quitKey):
		h.Quit()
	}
	h.Draw()
	return false
}

// Quit makes Run return.
func (h *Host) Quit() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Run processes terminal events until Quit is called, ctx is done, or the
// screen is finalized.
func (h *Host) Run(ctx context.Context) error {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-h.quit:
				return
			}
		}
	}()

	h.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.quit:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				h.DispatchKey(key.FromTcell(e))
			case *tcell.EventResize:
				h.screen.Sync()
				h.Draw()
			}
		}
	}
}

// Close runs the exit hooks once, in registration order, and releases the
// module loader. A panicking hook does not stop the others.
func (h *Host) Close() {
	h.exitOnce.Do(func() {
		h.mu.Lock()
		fns := h.exitFns
		h.exitFns = nil
		h.mu.Unlock()

		for _, fn := range fns {
			h.runExit(fn)
		}
		h.loader.Close()
	})
}

func (h *Host) runExit(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("exit hook panicked: %v", r)
		}
	}()
	fn()
}

// Draw redraws the host rows.
func (h *Host) Draw() {
	h.mu.Lock()
	title, status, dialog, focused := h.title, h.status, h.dialog, h.focused
	h.mu.Unlock()

	w, _ := h.screen.Size()
	style := titleStyle
	if focused {
		style = focusStyle
	}
	drawRow(h.screen, titleRow, w, " "+title, style)
	drawRow(h.screen, statusRow, w, " "+status, statusStyle)
	if dialog != "" {
		drawRow(h.screen, dialogRow, w, " "+dialog+"  [Esc]", dialogStyle)
	} else {
		drawRow(h.screen, dialogRow, w, "", tcell.StyleDefault)
	}
	h.screen.Show()
}

func drawRow(s tcell.Screen, y, width int, text string, style tcell.Style) {
	x := 0
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

type surface struct{ h *Host }

func (s surface) SetTitle(title string) {
	s.h.mu.Lock()
	s.h.title = title
	s.h.mu.Unlock()
	s.h.Draw()
}

func (s surface) Focus() {
	s.h.mu.Lock()
	s.h.focused = true
	s.h.mu.Unlock()
	s.h.Draw()
}

type statusLabel struct{ h *Host }

func (l statusLabel) SetText(text string) {
	l.h.mu.Lock()
	l.h.status = text
	l.h.mu.Unlock()
	l.h.Draw()
}

var _ host.Host = (*Host)(nil)
