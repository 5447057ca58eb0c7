package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/enmity/internal/logbuf"
)

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime("")
	require.NoError(t, err)

	assert.Equal(t, DefaultUpdateURL, rt.UpdateURL)
	assert.Equal(t, 3*time.Second, rt.UpdateTimeout)
	assert.Equal(t, "en", rt.Locale)
	assert.Equal(t, logbuf.DefaultMode, rt.Mode())
}

func TestLoadRuntimeFromEnv(t *testing.T) {
	t.Setenv("ENMITY_LOG_MODE", "diagnostic")
	t.Setenv("ENMITY_UPDATE_TIMEOUT", "750ms")
	t.Setenv("ENMITY_SKIP_UPDATE_CHECK", "true")

	rt, err := LoadRuntime("")
	require.NoError(t, err)

	assert.Equal(t, logbuf.ModeDiagnostic, rt.Mode())
	assert.Equal(t, 750*time.Millisecond, rt.UpdateTimeout)
	assert.True(t, rt.SkipUpdateCheck)
}

func TestLoadRuntimeDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENMITY_LOCALE=ja\n"), 0o644))
	// Registered so the variable set by godotenv is restored after the test.
	t.Setenv("ENMITY_LOCALE", "")
	require.NoError(t, os.Unsetenv("ENMITY_LOCALE"))

	rt, err := LoadRuntime(dir)
	require.NoError(t, err)
	assert.Equal(t, "ja", rt.Locale)
}

func TestLoadRuntimeBadValue(t *testing.T) {
	t.Setenv("ENMITY_UPDATE_TIMEOUT", "soon")

	_, err := LoadRuntime("")
	assert.Error(t, err)
}
