package config

import (
	"errors"
	"io/fs"

	"github.com/dshills/enmity/internal/logbuf"
)

// Store loads and saves the settings document at a fixed path.
type Store struct {
	path      string
	pluginDir string
	fs        FileSystem
	log       *logbuf.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFileSystem sets the file system used for reads and writes.
func WithFileSystem(fsys FileSystem) StoreOption {
	return func(s *Store) {
		s.fs = fsys
	}
}

// NewStore creates a store for the document at path. pluginDir is the
// module's private directory, used to derive the default overlay URL.
func NewStore(path, pluginDir string, log *logbuf.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = logbuf.Discard
	}
	s := &Store{
		path:      path,
		pluginDir: pluginDir,
		fs:        DefaultFS(),
		log:       log.WithComponent("Config"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. It never fails: any problem yields a default
// configuration. The result is always normalized.
func (s *Store) Load() *Config {
	cfg, err := s.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("no configuration at %s", s.path)
		} else {
			s.log.Warn("load failed: %v", err)
		}
		s.log.Info("creating new configuration")
		cfg = Default()
	}

	cfg.Normalize(s.pluginDir)
	return cfg
}

func (s *Store) read() (*Config, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return decode(s.path, data)
}

// Save writes cfg to the document path. Failures are logged at Error and
// returned; callers on shutdown paths are expected to ignore them.
func (s *Store) Save(cfg *Config) error {
	data, err := encode(s.path, cfg)
	if err != nil {
		s.log.Error("save failed: %v", err)
		return err
	}
	if err := s.fs.WriteFile(s.path, data); err != nil {
		s.log.Error("save failed: %v", err)
		return err
	}
	s.log.Debug("saved to %s", s.path)
	return nil
}
