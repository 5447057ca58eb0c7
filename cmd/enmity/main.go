// Package main runs the Enmity module inside a terminal host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/enmity/internal/config"
	"github.com/dshills/enmity/internal/host/termhost"
	"github.com/dshills/enmity/internal/logbuf"
	"github.com/dshills/enmity/internal/overlay/termview"
	"github.com/dshills/enmity/internal/panel"
	"github.com/dshills/enmity/internal/plugin"
	"github.com/dshills/enmity/internal/resolver"
	"github.com/dshills/enmity/internal/telemetry"
	"github.com/dshills/enmity/internal/update"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	PluginDir string
	DataDir   string
	Require   string
	Native    bool
	LogFile   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	rt, err := config.LoadRuntime(opts.PluginDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := telemetry.Setup(ctx, rt.OTelEndpoint, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set up tracing: %v\n", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	buf := logbuf.New(logbuf.WithMode(rt.Mode()))
	if buf.Mode() == logbuf.ModeDiagnostic {
		spans := logbuf.NewSpanSink(tp.Tracer("github.com/dshills/enmity"), "enmity.session")
		defer spans.End()
		buf.AddSink(spans)

		if logFile := diagnosticLogPath(opts, rt); logFile != "" {
			w, err := openLog(logFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
			defer w.Close()
			buf.AddSink(logbuf.NewWriterSink(w))
		}
	}
	log := logbuf.NewLogger(buf)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if rt.MetricsAddr != "" {
		srv := serveMetrics(rt.MetricsAddr, reg, log.WithComponent("Metrics"))
		defer srv.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	h := termhost.New(screen, opts.DataDir,
		termhost.WithLogger(log.WithComponent("Host")),
		termhost.WithLuaPath(filepath.Join(opts.PluginDir, "?.lua")),
	)
	defer h.Close()

	var opener resolver.Opener = resolver.LuaOpener{}
	if opts.Native {
		opener = resolver.NativeOpener{}
	}

	var checker update.Checker = update.Nop{}
	if version != "dev" {
		checker = update.NewGitHubChecker(rt.UpdateURL, version, &http.Client{Timeout: rt.UpdateTimeout})
	}

	coord := plugin.New(h,
		plugin.WithLogBuffer(buf),
		plugin.WithRuntime(rt),
		plugin.WithOpener(opener),
		plugin.WithEngine(termview.NewEngine(screen)),
		plugin.WithUpdateChecker(checker),
		plugin.WithRegisterer(reg),
		plugin.WithPanelFactory(func(cfg *config.Config) (io.Closer, error) {
			w, ht := screen.Size()
			rect := panel.Rect{X: 0, Y: termhost.HeaderRows, W: w, H: ht - termhost.HeaderRows}
			if rect.W <= 0 || rect.H <= 0 {
				return nil, errors.New("terminal too small for the log panel")
			}
			return panel.New(screen, buf, cfg, rect), nil
		}),
	)
	h.AddPlugin(coord, filepath.Join(opts.PluginDir, filepath.Base(executable())))

	if err := coord.Activate(h.Surface(), h.Status()); err != nil {
		// The host already shows the error; keep running so it can be read.
		log.WithComponent("Main").Error("activation failed: %v", err)
	}

	if opts.Require != "" {
		if path, err := h.Require(opts.Require); err != nil {
			h.ShowError("require", err.Error())
		} else {
			log.WithComponent("Main").Info("required %s from %s", opts.Require, path)
		}
	}

	runErr := h.Run(ctx)
	coord.Deactivate()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.PluginDir, "plugin-dir", filepath.Dir(executable()), "Directory the module and its private files live in")
	flag.StringVar(&opts.DataDir, "data-dir", defaultDataDir(), "Host data directory (configuration is kept under Config/)")
	flag.StringVar(&opts.Require, "require", "", "Module to require through the host loader after activation")
	flag.BoolVar(&opts.Native, "native", false, "Resolve Go plugins (.so) instead of Lua modules")
	flag.StringVar(&opts.LogFile, "log-file", "", "Also write diagnostic log entries to this file (defaults to <data-dir>/Logs/enmity.trace.log when no trace endpoint is set)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Enmity - overlay module runtime\n\n")
		fmt.Fprintf(os.Stderr, "Usage: enmity [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+E             Toggle the overlay\n")
		fmt.Fprintf(os.Stderr, "  Alt+Arrows         Move the overlay\n")
		fmt.Fprintf(os.Stderr, "  Alt+Shift+Arrows   Resize the overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc                Dismiss an error\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+Q             Quit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Enmity %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if abs, err := filepath.Abs(opts.PluginDir); err == nil {
		opts.PluginDir = abs
	}
	return opts
}

func executable() string {
	exe, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return exe
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "enmity-host")
}

// diagnosticLogPath returns the file diagnostic entries are written to, or
// "" when they only go to the trace exporter.
func diagnosticLogPath(opts options, rt config.Runtime) string {
	switch {
	case opts.LogFile != "":
		return opts.LogFile
	case rt.OTelEndpoint != "":
		return ""
	}
	return filepath.Join(opts.DataDir, "Logs", "enmity.trace.log")
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// serveMetrics exposes reg on addr/metrics until the returned server is
// closed.
func serveMetrics(addr string, reg *prometheus.Registry, log *logbuf.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("%v", err)
		}
	}()
	log.Info("serving on %s/metrics", addr)
	return srv
}
