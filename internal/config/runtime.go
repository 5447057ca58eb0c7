package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dshills/enmity/internal/logbuf"
)

// DefaultUpdateURL is the release feed checked on activation.
const DefaultUpdateURL = "https://api.github.com/repos/dshills/enmity/releases/latest"

// Runtime holds process settings taken from the environment rather than
// from the persisted document.
type Runtime struct {
	LogMode         string        `env:"ENMITY_LOG_MODE"`
	Locale          string        `env:"ENMITY_LOCALE" envDefault:"en"`
	UpdateURL       string        `env:"ENMITY_UPDATE_URL" envDefault:"https://api.github.com/repos/dshills/enmity/releases/latest"`
	UpdateTimeout   time.Duration `env:"ENMITY_UPDATE_TIMEOUT" envDefault:"3s"`
	SkipUpdateCheck bool          `env:"ENMITY_SKIP_UPDATE_CHECK"`
	OTelEndpoint    string        `env:"ENMITY_OTEL_ENDPOINT"`
	MetricsAddr     string        `env:"ENMITY_METRICS_ADDR"`
}

// LoadRuntime reads runtime settings from the environment. When dir is not
// empty, dir/.env is loaded first; variables already set take precedence.
func LoadRuntime(dir string) (Runtime, error) {
	if dir != "" {
		path := filepath.Join(dir, ".env")
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Runtime{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	return rt, nil
}

// Mode returns the log retention mode. An empty setting yields the build
// default.
func (r Runtime) Mode() logbuf.Mode {
	return logbuf.ParseMode(r.LogMode)
}
