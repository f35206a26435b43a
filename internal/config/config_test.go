package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
channel = 3
controls = [
  { type = "Button", pin = 17, cc = 10, pull_up = true },
  { type = "Button", pin = 27, cc = 11, debounce_ms = 20 },
  { type = "RotaryEncoder", pin_a = 5, pin_b = 6, cc = 20, relative_value = true },
  { type = "RotaryEncoder", pin_a = 13, pin_b = 19, cc = 21, reverse = true, steps_per_detent = 2, initial_value = 0 },
]
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, uint8(2), cfg.Channel)
	assert.Empty(t, cfg.Unknown)
	require.Len(t, cfg.Controls, 4)

	assert.Equal(t, contracts.Button{Pin: 17, CC: 10, Pull: contracts.PullUp, Debounce: 5 * time.Millisecond}, cfg.Controls[0])
	assert.Equal(t, contracts.Button{Pin: 27, CC: 11, Pull: contracts.PullDown, Debounce: 20 * time.Millisecond}, cfg.Controls[1])

	enc := cfg.Controls[2].(contracts.RotaryEncoder)
	assert.Equal(t, uint8(5), enc.PinA)
	assert.Equal(t, uint8(6), enc.PinB)
	assert.True(t, enc.Relative)
	assert.Equal(t, 4, enc.StepsPerDetent)
	assert.Nil(t, enc.InitialValue)

	enc = cfg.Controls[3].(contracts.RotaryEncoder)
	assert.True(t, enc.Reverse)
	assert.Equal(t, 2, enc.StepsPerDetent)
	require.NotNil(t, enc.InitialValue)
	assert.Equal(t, uint8(0), *enc.InitialValue)
}

func TestParseZeroDebounceDisablesIt(t *testing.T) {
	cfg, err := Parse([]byte(`controls = [{ type = "Button", pin = 4, cc = 1, debounce_ms = 0 }]`))
	require.NoError(t, err)
	require.Len(t, cfg.Controls, 1)
	assert.Zero(t, cfg.Controls[0].(contracts.Button).Debounce)
}

func TestParseDefaultsChannel(t *testing.T) {
	cfg, err := Parse([]byte(`controls = []`))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), cfg.Channel)
	assert.Empty(t, cfg.Controls)
}

func TestParseArrayOfTables(t *testing.T) {
	cfg, err := Parse([]byte(`
[[controls]]
type = "Button"
pin = 4
cc = 64
pull_up = true
`))
	require.NoError(t, err)
	require.Len(t, cfg.Controls, 1)
	assert.Equal(t, uint8(4), cfg.Controls[0].PrimaryPin())
}

func TestParseReportsUnknownKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
colour = "red"
controls = [{ type = "Button", pin = 4, cc = 1, led = 3 }]
`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"colour", "controls.led"}, cfg.Unknown)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", `controls = [`, "line"},
		{"unknown type", `controls = [{ type = "Slider", pin = 1, cc = 1 }]`, `unknown type "Slider"`},
		{"missing type", `controls = [{ pin = 1, cc = 1 }]`, "missing type"},
		{"missing pin", `controls = [{ type = "Button", cc = 1 }]`, "missing pin"},
		{"cc out of range", `controls = [{ type = "Button", pin = 1, cc = 128 }]`, "cc 128 out of range"},
		{"both pulls", `controls = [{ type = "Button", pin = 1, cc = 1, pull_up = true, pull_down = true }]`, "both set"},
		{"negative debounce", `controls = [{ type = "Button", pin = 1, cc = 1, debounce_ms = -1 }]`, "negative"},
		{"same encoder pins", `controls = [{ type = "RotaryEncoder", pin_a = 5, pin_b = 5, cc = 1 }]`, "both 5"},
		{"bad steps", `controls = [{ type = "RotaryEncoder", pin_a = 5, pin_b = 6, cc = 1, steps_per_detent = 3 }]`, "steps_per_detent 3"},
		{"bad initial", `controls = [{ type = "RotaryEncoder", pin_a = 5, pin_b = 6, cc = 1, initial_value = 200 }]`, "initial_value 200"},
		{"channel zero", `channel = 0`, "channel 0"},
		{"channel too high", `channel = 17`, "channel 17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.ErrorIs(t, err, contracts.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Controls, 4)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, contracts.ErrConfig)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/pi")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/pi", FileName), path)
}
