package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/enmity/internal/config"
)

func TestDiagnosticLogPath(t *testing.T) {
	data := filepath.Join("home", "data")
	tests := []struct {
		name     string
		logFile  string
		endpoint string
		want     string
	}{
		{"explicit file", "/tmp/enmity.log", "", "/tmp/enmity.log"},
		{"explicit file with exporter", "/tmp/enmity.log", "localhost:4318", "/tmp/enmity.log"},
		{"exporter only", "", "localhost:4318", ""},
		{"nothing configured", "", "", filepath.Join(data, "Logs", "enmity.trace.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options{DataDir: data, LogFile: tt.logFile}
			rt := config.Runtime{OTelEndpoint: tt.endpoint}
			assert.Equal(t, tt.want, diagnosticLogPath(opts, rt))
		})
	}
}
