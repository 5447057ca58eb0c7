// Package plugin coordinates activation and deactivation of the module
// inside its host.
//
// Activation acquires resources in a fixed order. If any step fails, the
// resources already acquired are released in reverse order and the
// coordinator returns to StateUninitialized, so the host can retry.
// Deactivation releases everything best-effort: a failing step is logged and
// the remaining steps still run.
package plugin

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/message"

	"github.com/dshills/enmity/internal/config"
	"github.com/dshills/enmity/internal/host"
	"github.com/dshills/enmity/internal/i18n"
	"github.com/dshills/enmity/internal/input/key"
	"github.com/dshills/enmity/internal/logbuf"
	"github.com/dshills/enmity/internal/overlay"
	"github.com/dshills/enmity/internal/resolver"
	"github.com/dshills/enmity/internal/update"
)

// Title is the caption given to the host surface.
const Title = "EnmityPlugin"

// DefaultShortcut toggles overlay visibility.
var DefaultShortcut = key.MustParse("Ctrl+E")

// PanelFactory builds the module's panel bound to the loaded configuration.
type PanelFactory func(cfg *config.Config) (io.Closer, error)

// Coordinator owns every resource the module acquires from its host.
type Coordinator struct {
	mu    sync.Mutex
	state State

	host     host.Host
	buf      *logbuf.Buffer
	log      *logbuf.Logger
	runtime  config.Runtime
	opener   resolver.Opener
	engine   overlay.Engine
	checker  update.Checker
	panels   PanelFactory
	fs       config.FileSystem
	reg      prometheus.Registerer
	shortcut key.Event
	printer  *message.Printer

	exitHooked bool

	// Valid between a successful Activate and Deactivate.
	surface      host.Surface
	status       host.StatusLabel
	registration *resolver.Registration
	store        *config.Store
	cfg          *config.Config
	panel        io.Closer
	proxy        *overlay.Proxy
	cancelRelay  func()
	unsubscribe  func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogBuffer sets the buffer all diagnostics are written to.
func WithLogBuffer(buf *logbuf.Buffer) Option {
	return func(c *Coordinator) {
		c.buf = buf
	}
}

// WithRuntime sets the environment-derived settings.
func WithRuntime(rt config.Runtime) Option {
	return func(c *Coordinator) {
		c.runtime = rt
	}
}

// WithOpener sets how the resolver loads module files.
func WithOpener(op resolver.Opener) Option {
	return func(c *Coordinator) {
		c.opener = op
	}
}

// WithEngine sets the overlay engine.
func WithEngine(e overlay.Engine) Option {
	return func(c *Coordinator) {
		c.engine = e
	}
}

// WithUpdateChecker sets the release checker run on activation.
func WithUpdateChecker(u update.Checker) Option {
	return func(c *Coordinator) {
		c.checker = u
	}
}

// WithPanelFactory sets how the panel is built.
func WithPanelFactory(f PanelFactory) Option {
	return func(c *Coordinator) {
		c.panels = f
	}
}

// WithFileSystem sets the file system used by the configuration store.
func WithFileSystem(fsys config.FileSystem) Option {
	return func(c *Coordinator) {
		c.fs = fsys
	}
}

// WithRegisterer enables resolver metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Coordinator) {
		c.reg = reg
	}
}

// WithShortcut replaces the visibility toggle key.
func WithShortcut(ev key.Event) Option {
	return func(c *Coordinator) {
		c.shortcut = ev
	}
}

// New creates a coordinator for h.
func New(h host.Host, opts ...Option) *Coordinator {
	c := &Coordinator{
		host:     h,
		opener:   resolver.LuaOpener{},
		checker:  update.Nop{},
		fs:       config.DefaultFS(),
		shortcut: DefaultShortcut,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.buf == nil {
		c.buf = logbuf.New(logbuf.WithMode(c.runtime.Mode()))
	}
	c.log = logbuf.NewLogger(c.buf)
	c.printer = i18n.Printer(c.runtime.Locale)
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Buffer returns the log buffer.
func (c *Coordinator) Buffer() *logbuf.Buffer {
	return c.buf
}

// Config returns a copy of the live configuration, or nil before it has
// been loaded.
func (c *Coordinator) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil {
		return nil
	}
	return c.cfg.Clone()
}

// Activate acquires all resources and transitions to StateActive. On failure
// the error is shown to the user, everything acquired so far is released and
// an *InitError is returned.
func (c *Coordinator) Activate(surface host.Surface, status host.StatusLabel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.CanActivate() {
		return stateError(c.state)
	}
	c.state = StateInitializing
	c.surface = surface
	c.status = status

	log := c.log.WithComponent("InitPlugin")
	if surface != nil {
		surface.SetTitle(Title)
	}
	if c.buf.Mode() == logbuf.ModeDiagnostic {
		log.Warn("=================")
		log.Warn("   DEBUG BUILD   ")
		log.Warn("=================")
	}

	var rb rollback
	if err := c.activate(log, &rb); err != nil {
		log.Error("%v", err)
		c.showError(c.printer.Sprintf(i18n.KeyInitFailed, err.Error()))
		rb.run(log)
		c.reset()
		c.state = StateUninitialized
		return err
	}

	c.state = StateActive
	text := c.printer.Sprintf(i18n.KeyStatusInitialized)
	log.Info("%s", text)
	if status != nil {
		status.SetText(text)
	}
	return nil
}

func (c *Coordinator) activate(log *logbuf.Logger, rb *rollback) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &InitError{Component: "activation", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	file, ok := c.host.PluginFile(c)
	if !ok || file == "" {
		return &InitError{Component: "plugin directory", Err: ErrPluginDirUnknown}
	}
	pluginDir := filepath.Dir(file)
	log.Info("PluginDirectory = %s", pluginDir)

	res := resolver.New(pluginDir, c.opener,
		resolver.WithLogger(c.log),
		resolver.WithNotifier(c.host),
		resolver.WithLocale(c.runtime.Locale),
		resolver.WithRegisterer(c.reg),
	)
	reg, err := resolver.Register(c.host.Loader(), res)
	if err != nil {
		return &InitError{Component: "resolver", Err: err}
	}
	c.registration = reg
	rb.add("resolver", func() error {
		reg.Unregister()
		return nil
	})

	c.checkForUpdate()

	c.store = config.NewStore(config.DefaultPath(c.host.DataDir()), pluginDir, c.log,
		config.WithFileSystem(c.fs))
	c.cfg = c.store.Load()

	if c.panels != nil {
		p, err := c.panels(c.cfg)
		if err != nil {
			return &InitError{Component: "panel", Err: err}
		}
		c.panel = p
		rb.add("panel", p.Close)
	}

	proxy := overlay.NewProxy(c.engine, c.cfg.Overlay)
	c.proxy = proxy
	c.cancelRelay = proxy.Subscribe(c.relay)
	rb.add("overlay log relay", func() error {
		c.cancelRelay()
		return nil
	})
	rb.add("overlay", proxy.Dispose)
	if err := proxy.Start(); err != nil {
		return &InitError{Component: "overlay", Err: err}
	}
	if !c.exitHooked && c.engine != nil {
		c.host.OnExit(overlay.SafeShutdown(c.engine, c.log.WithComponent("Overlay")))
		c.exitHooked = true
	}

	c.unsubscribe = c.host.SubscribeKeys(c.handleKey)
	rb.add("shortcut", func() error {
		c.unsubscribe()
		return nil
	})
	return nil
}

// checkForUpdate runs the release check. It never fails activation.
func (c *Coordinator) checkForUpdate() {
	log := c.log.WithComponent("UpdateChecker")
	if c.runtime.SkipUpdateCheck || c.checker == nil {
		log.Debug("skipped")
		return
	}

	timeout := c.runtime.UpdateTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	msg, err := safeCheck(ctx, c.checker)
	if err != nil {
		log.Warn("%v", err)
		return
	}
	if msg != "" {
		log.Info("%s", msg)
	}
}

func safeCheck(ctx context.Context, u update.Checker) (msg string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			msg, err = "", fmt.Errorf("panic: %v", rec)
		}
	}()
	return u.Check(ctx)
}

// relay copies overlay diagnostics into the buffer unchanged.
func (c *Coordinator) relay(e overlay.Event) {
	c.buf.Append(e.Level, e.Message)
}

func (c *Coordinator) showError(msg string) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.WithComponent("InitPlugin").Error("error dialog failed: %v", rec)
		}
	}()
	c.host.ShowError(c.printer.Sprintf(i18n.KeyErrorTitle), msg)
}

// Deactivate releases every resource. Each step runs even if an earlier one
// failed. Calling it before Activate, or more than once, is safe.
func (c *Coordinator) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateTerminated || c.state == StateDeinitializing {
		return
	}
	c.state = StateDeinitializing
	log := c.log.WithComponent("DeInitPlugin")

	step(log, "save configuration", c.saveConfig)
	step(log, "dispose overlay", func() error {
		if c.proxy == nil {
			return nil
		}
		err := c.proxy.Dispose()
		c.cancelRelay()
		return err
	})
	step(log, "close panel", func() error {
		if c.panel == nil {
			return nil
		}
		return c.panel.Close()
	})
	step(log, "unsubscribe shortcut", func() error {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		return nil
	})
	step(log, "unregister resolver", func() error {
		c.registration.Unregister()
		return nil
	})

	text := c.printer.Sprintf(i18n.KeyStatusFinalized)
	log.Info("%s", text)
	step(log, "status", func() error {
		if c.status != nil {
			c.status.SetText(text)
		}
		return nil
	})

	c.reset()
	c.state = StateTerminated
}

// saveConfig persists the configuration, first copying the live overlay
// geometry when the overlay was started. Save logs its own failures.
func (c *Coordinator) saveConfig() error {
	if c.cfg == nil || c.store == nil {
		return nil
	}
	if c.proxy != nil && c.proxy.Started() {
		c.proxy.Geometry().Apply(&c.cfg.Overlay)
	}
	_ = c.store.Save(c.cfg)
	return nil
}

// reset drops references to released resources. The configuration is kept
// so Config still reports the last state.
func (c *Coordinator) reset() {
	c.registration = nil
	c.store = nil
	c.panel = nil
	c.proxy = nil
	c.cancelRelay = nil
	c.unsubscribe = nil
	c.surface = nil
}

// step runs fn, logging any error or panic.
func step(log *logbuf.Logger, name string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("%s: panic: %v", name, rec)
		}
	}()
	if err := fn(); err != nil {
		log.Error("%s: %v", name, err)
	}
}

// rollback records release functions for acquired resources.
type rollback struct {
	names []string
	fns   []func() error
}

func (r *rollback) add(name string, fn func() error) {
	r.names = append(r.names, name)
	r.fns = append(r.fns, fn)
}

// run releases resources in reverse acquisition order.
func (r *rollback) run(log *logbuf.Logger) {
	for i := len(r.fns) - 1; i >= 0; i-- {
		name, fn := r.names[i], r.fns[i]
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Warn("rollback %s: panic: %v", name, rec)
				}
			}()
			if err := fn(); err != nil {
				log.Warn("rollback %s: %v", name, err)
			}
		}()
	}
}
