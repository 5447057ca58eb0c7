// Package config provides the module's persisted settings.
//
// Settings are stored as a TOML document (YAML is accepted when the file
// name ends in .yaml or .yml) at a host-provided per-module data path.
// Loading never fails: missing or unreadable documents fall back to
// defaults, and Normalize guarantees the invariants the rest of the module
// relies on.
package config

import (
	"net/url"
	"path/filepath"
	"strings"
)

// CurrentVersion is the document version written by this module.
const CurrentVersion = 1

// Default overlay settings.
const (
	DefaultPositionX    = 20
	DefaultPositionY    = 20
	DefaultWidth        = 250
	DefaultHeight       = 300
	DefaultMaxFrameRate = 30
)

// Point is a screen position.
type Point struct {
	X int `toml:"x" yaml:"x"`
	Y int `toml:"y" yaml:"y"`
}

// Size is a screen extent.
type Size struct {
	W int `toml:"w" yaml:"w"`
	H int `toml:"h" yaml:"h"`
}

// OverlayConfig holds the overlay window settings.
type OverlayConfig struct {
	URL            string `toml:"url" yaml:"url"`
	Position       Point  `toml:"position" yaml:"position"`
	Size           Size   `toml:"size" yaml:"size"`
	IsVisible      bool   `toml:"isVisible" yaml:"isVisible"`
	IsClickThrough bool   `toml:"isClickThrough" yaml:"isClickThrough"`
	MaxFrameRate   int    `toml:"maxFrameRate" yaml:"maxFrameRate"`
}

// Config is the module's persisted settings document.
type Config struct {
	Version int           `toml:"version" yaml:"version"`
	Overlay OverlayConfig `toml:"overlay" yaml:"overlay"`

	// Extra holds fields this module does not interpret, nested the way
	// they appear in the document (a key unknown inside the overlay table
	// is kept under Extra["overlay"]). They are written back unchanged.
	Extra map[string]any `toml:"-" yaml:"-"`
}

// schema is the shape of the document keys mapped onto Config fields.
// Leaves are nil; tables are nested maps.
var schema = map[string]any{
	"version": nil,
	"overlay": map[string]any{
		"url":            nil,
		"position":       map[string]any{"x": nil, "y": nil},
		"size":           map[string]any{"w": nil, "h": nil},
		"isVisible":      nil,
		"isClickThrough": nil,
		"maxFrameRate":   nil,
	},
}

// Default returns a fully populated default configuration.
// The overlay URL is left empty; Normalize fills it in.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Overlay: OverlayConfig{
			Position:     Point{X: DefaultPositionX, Y: DefaultPositionY},
			Size:         Size{W: DefaultWidth, H: DefaultHeight},
			IsVisible:    true,
			MaxFrameRate: DefaultMaxFrameRate,
		},
	}
}

// Normalize fills in values that must never be empty after a load.
func (c *Config) Normalize(pluginDir string) {
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	if strings.TrimSpace(c.Overlay.URL) == "" {
		c.Overlay.URL = DefaultOverlayURL(pluginDir)
	}
	if c.Overlay.Size.W <= 0 || c.Overlay.Size.H <= 0 {
		c.Overlay.Size = Size{W: DefaultWidth, H: DefaultHeight}
	}
	if c.Overlay.MaxFrameRate <= 0 {
		c.Overlay.MaxFrameRate = DefaultMaxFrameRate
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Extra != nil {
		out.Extra = copyTree(c.Extra)
	}
	return &out
}

func copyTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			v = copyTree(sub)
		}
		out[k] = v
	}
	return out
}

// DefaultOverlayURL returns the file URL of the overlay page bundled in the
// module's private directory.
func DefaultOverlayURL(pluginDir string) string {
	p := filepath.Join(pluginDir, "resources", "enmity.html")
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths need a leading slash in file URLs.
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// DefaultPath returns the settings document path under a host data directory.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "Config", "enmity.config.toml")
}
