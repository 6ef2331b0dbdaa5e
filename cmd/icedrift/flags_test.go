package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/icedrift/internal/config"
)

var requiredArgs = []string{
	"-input", "in.txt",
	"-output", "out.txt",
	"-drift-speed", "2.11",
	"-drift-bearing", "197",
	"-ref-t0", "232571.1",
	"-ref-t1", "232566.3",
}

func TestParseArgs_FlagsOnly(t *testing.T) {
	cfg, err := parseArgs(requiredArgs, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, config.Run{
		Input:          "in.txt",
		Output:         "out.txt",
		Format:         "green",
		DriftSpeed:     2.11,
		DriftSpeedUnit: "mpm",
		DriftBearing:   197,
		ExtraDrift:     0,
		ReferenceT0:    232571.1,
		ReferenceT1:    232566.3,
		SameDirection:  false,
		LogLevel:       "info",
	}, cfg)
}

func TestParseArgs_ConfigFileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: from-file.txt
output: from-file-out.txt
format: nir
drift_speed: 3
drift_speed_unit: kph
drift_bearing: 90
extra_drift: 2
reference_t0: 10
reference_t1: 20
same_direction: true
`), 0644))

	cfg, err := parseArgs([]string{
		"-config", path,
		"-output", "override.txt",
		"-extra-drift", "0",
		"-same-direction=false",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "from-file.txt", cfg.Input)
	assert.Equal(t, "override.txt", cfg.Output)
	assert.Equal(t, "nir", cfg.Format)
	assert.Equal(t, 3.0, cfg.DriftSpeed)
	assert.Equal(t, "kph", cfg.DriftSpeedUnit)
	// Explicit zero on the command line still overrides the file.
	assert.Equal(t, 0.0, cfg.ExtraDrift)
	assert.False(t, cfg.SameDirection)
}

func TestParseArgs_UnsetFlagsDoNotOverrideFile(t *testing.T) {
	f := newCLIFlags("test", &bytes.Buffer{})
	require.NoError(t, f.fs.Parse([]string{"-input", "a.txt"}))

	o := f.overlay()
	require.NotNil(t, o.Input)
	assert.Equal(t, "a.txt", *o.Input)
	assert.Nil(t, o.Format, "default format must not mask a file value")
	assert.Nil(t, o.DriftSpeedUnit)
	assert.Nil(t, o.SameDirection)
	assert.Nil(t, o.LogLevel)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing required", []string{"-input", "in.txt"}},
		{"unknown flag", append([]string{"-bogus"}, requiredArgs...)},
		{"bad format", append([]string{"-format", "red"}, requiredArgs...)},
		{"bad unit", append([]string{"-drift-speed-unit", "furlongs"}, requiredArgs...)},
		{"zero reference", append(append([]string{}, requiredArgs...), "-ref-t1", "232571.1")},
		{"stray argument", append(append([]string{}, requiredArgs...), "extra")},
		{"missing config file", append([]string{"-config", "/nonexistent/run.yaml"}, requiredArgs...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestParseArgs_Version(t *testing.T) {
	_, err := parseArgs([]string{"-version"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errVersion))
}

func TestParseArgs_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "-drift-bearing")
}
