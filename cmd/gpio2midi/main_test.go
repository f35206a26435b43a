package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	f, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "gpio2midi", f.port)
	assert.Equal(t, 4000.0, f.pollingRate)
	assert.Equal(t, "gpiocdev", f.gpio)
	assert.Equal(t, "gpiochip0", f.gpioChip)
	assert.Equal(t, "rtmidi", f.midi)
	assert.Equal(t, "/dev/serial0", f.serialDevice)
	assert.Equal(t, 256, f.queueSize)
	assert.Empty(t, f.config)
}

func TestParseFlagsRejectsBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"--polling-rate", "0"},
		{"--queue-size", "-1"},
		{"--bogus"},
		{"extra"},
	} {
		_, err := parseFlags(args, &bytes.Buffer{})
		assert.Error(t, err, "%v", args)
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"--help"}, &stderr))
	assert.Contains(t, stderr.String(), "-polling-rate")
}

func TestRunFailsOnMissingConfig(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "configuration error")
}

func TestRunFailsOnBadLogLevel(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"--log-level", "loud"}, &stderr))
	assert.Contains(t, stderr.String(), "loud")
}

func TestRunFailsOnUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpio2midi.toml")
	require.NoError(t, os.WriteFile(path, []byte(`controls = [{ type = "Button", pin = 17, cc = 10 }]`), 0o600))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", path, "--gpio", "sysfs", "--log-level", "error"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported backend")
}
