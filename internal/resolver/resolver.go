// Package resolver locates and loads auxiliary modules the host's own
// loader could not find.
//
// Modules are looked up in the plugin's private directory. Identifiers of
// the form "<name>, Version=<v>, Culture=<c>, PublicKeyToken=<k>" resolve to
// <dir>/<name><ext> for the neutral culture and to <dir>/<c>/<name><ext>
// otherwise; any other identifier resolves to <dir>/<identifier><ext>.
//
// Resolve never panics or returns an error: a missing file is simply not a
// match, and a file that fails to load is reported to the user and logged.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dshills/enmity/internal/i18n"
	"github.com/dshills/enmity/internal/logbuf"
)

// Notifier presents a message to the user.
type Notifier interface {
	ShowError(title, message string)
}

// Resolver resolves module identifiers against a private directory.
//
// All fields are fixed at construction, so Resolve is safe to call from any
// goroutine, including re-entrantly from the host's loader.
type Resolver struct {
	baseDir  string
	opener   Opener
	log      *logbuf.Logger
	notifier Notifier
	printer  *message.Printer
	metrics  *metrics

	registered atomic.Bool
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	log      *logbuf.Logger
	notifier Notifier
	locale   string
	reg      prometheus.Registerer
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *logbuf.Logger) Option {
	return func(o *resolverOptions) {
		o.log = l
	}
}

// WithNotifier sets where load failures are shown to the user.
func WithNotifier(n Notifier) Option {
	return func(o *resolverOptions) {
		o.notifier = n
	}
}

// WithLocale sets the language of user-visible messages.
func WithLocale(locale string) Option {
	return func(o *resolverOptions) {
		o.locale = locale
	}
}

// WithRegisterer enables lookup metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *resolverOptions) {
		o.reg = reg
	}
}

// New creates a resolver for modules under baseDir opened with opener.
func New(baseDir string, opener Opener, opts ...Option) *Resolver {
	o := resolverOptions{log: logbuf.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logbuf.Discard
	}

	return &Resolver{
		baseDir:  baseDir,
		opener:   opener,
		log:      o.log.WithComponent("AssemblyResolve"),
		notifier: o.notifier,
		printer:  i18n.Printer(o.locale),
		metrics:  newMetrics(o.reg),
	}
}

// CandidatePath returns the file that would satisfy id. The second result is
// false when the path would fall outside the base directory.
func (r *Resolver) CandidatePath(id Identifier) (string, bool) {
	ext := r.opener.Ext()

	var path string
	switch v := id.(type) {
	case Parsed:
		if v.IsNeutral() {
			path = filepath.Join(r.baseDir, v.Name+ext)
		} else {
			path = filepath.Join(r.baseDir, v.Culture, v.Name+ext)
		}
	case Bare:
		path = filepath.Join(r.baseDir, v.Text+ext)
	default:
		return "", false
	}

	rel, err := filepath.Rel(r.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// Resolve returns the module for identifier, or false when the private
// directory has no usable match.
func (r *Resolver) Resolve(identifier string) (mod Module, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("=> unexpected failure resolving '%s': %v", identifier, rec)
			r.metrics.observe(FailureOther.String())
			mod, ok = nil, false
		}
	}()

	r.log.Debug("resolving assembly for '%s'...", identifier)

	id := ParseIdentifier(identifier)
	if p, isParsed := id.(Parsed); isParsed && !p.IsNeutral() {
		if _, err := language.Parse(p.Culture); err != nil {
			r.log.Debug("=> culture %q is not a well-formed language tag", p.Culture)
		}
	}

	path, inside := r.CandidatePath(id)
	if !inside {
		r.log.Debug("=> '%s' points outside the plugin directory", identifier)
		r.metrics.observe(outcomeNotFound)
		return nil, false
	}

	// Anything that prevents stat from seeing a regular file means there is
	// no candidate. Failures are only reported for files that exist.
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.log.Debug("=> %v", err)
		}
		r.log.Debug("=> not found in plugin directory")
		r.metrics.observe(outcomeNotFound)
		return nil, false
	}

	mod, err = r.load(path)
	if err != nil {
		r.fail(path, err)
		return nil, false
	}

	r.log.Debug("=> found assembly in %s", path)
	r.metrics.observe(outcomeFound)
	return mod, true
}

// load checks the file for an exclusive holder and opens it. A panic in
// the opener is turned into an error.
func (r *Resolver) load(path string) (mod Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mod, err = nil, fmt.Errorf("opener panic: %v", rec)
		}
	}()

	if err := checkLock(path); err != nil {
		return nil, err
	}
	return r.opener.Open(path)
}

// fail logs and reports a load failure.
func (r *Resolver) fail(path string, err error) {
	lerr := &LoadError{Path: path, Class: Classify(err), Err: err}

	var key string
	switch lerr.Class {
	case FailureLocked:
		key = i18n.KeyModuleLocked
	case FailureAccessDenied:
		key = i18n.KeyModuleBlocked
	default:
		key = i18n.KeyModuleFailed
	}
	msg := r.printer.Sprintf(key, path)

	r.log.Error("=> %s", msg)
	r.log.Error("=> %v", lerr)
	r.metrics.observe(lerr.Class.String())

	if r.notifier != nil {
		r.notifier.ShowError(r.printer.Sprintf(i18n.KeyErrorTitle), msg)
	}
}
