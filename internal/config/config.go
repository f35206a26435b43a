// Package config loads the TOML control mapping file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

// FileName is the name of the mapping file looked up in the home directory.
const FileName = "gpio2midi.toml"

const (
	typeButton        = "Button"
	typeRotaryEncoder = "RotaryEncoder"
)

// Config is the validated content of a mapping file.
type Config struct {
	// Channel is the zero-based MIDI channel.
	Channel  uint8
	Controls []contracts.Control
	// Unknown lists keys present in the file that are not understood.
	Unknown []string
}

type fileConfig struct {
	Channel  *int          `toml:"channel"`
	Controls []fileControl `toml:"controls"`
}

// fileControl is the union of both control tables. Pointers distinguish
// missing keys from zero values.
type fileControl struct {
	Type string `toml:"type"`

	Pin        *int `toml:"pin"`
	PullUp     bool `toml:"pull_up"`
	PullDown   bool `toml:"pull_down"`
	DebounceMS *int `toml:"debounce_ms"`
	CC         *int `toml:"cc"`
	PinA       *int `toml:"pin_a"`
	PinB       *int `toml:"pin_b"`
	Relative   bool `toml:"relative_value"`
	Reverse    bool `toml:"reverse"`
	Steps      *int `toml:"steps_per_detent"`
	Initial    *int `toml:"initial_value"`
}

// DefaultPath returns <home>/gpio2midi.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: could not find home directory: %v", contracts.ErrConfig, err)
	}
	return filepath.Join(home, FileName), nil
}

// Load reads and validates the mapping file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", contracts.ErrConfig, path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a mapping document.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: line %d: %s", contracts.ErrConfig, perr.Position.Line, perr.Message)
		}
		return nil, fmt.Errorf("%w: %v", contracts.ErrConfig, err)
	}

	cfg := &Config{}
	if raw.Channel != nil {
		if *raw.Channel < 1 || *raw.Channel > 16 {
			return nil, fmt.Errorf("%w: channel %d out of range [1,16]", contracts.ErrConfig, *raw.Channel)
		}
		cfg.Channel = uint8(*raw.Channel - 1)
	}

	for _, k := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, k.String())
	}

	for i, c := range raw.Controls {
		ctrl, err := c.control()
		if err != nil {
			return nil, fmt.Errorf("%w: control %d: %v", contracts.ErrConfig, i, err)
		}
		cfg.Controls = append(cfg.Controls, ctrl)
	}
	return cfg, nil
}

func (c fileControl) control() (contracts.Control, error) {
	switch c.Type {
	case typeButton:
		return c.button()
	case typeRotaryEncoder:
		return c.encoder()
	case "":
		return nil, errors.New("missing type")
	default:
		return nil, fmt.Errorf("unknown type %q", c.Type)
	}
}

func (c fileControl) button() (contracts.Control, error) {
	pin, err := byteField("pin", c.Pin, 255)
	if err != nil {
		return nil, err
	}
	cc, err := byteField("cc", c.CC, 127)
	if err != nil {
		return nil, err
	}
	if c.PullUp && c.PullDown {
		return nil, errors.New("pull_up and pull_down are both set")
	}

	b := contracts.Button{Pin: pin, CC: cc, Pull: contracts.PullDown, Debounce: contracts.DefaultButtonDebounce}
	if c.PullUp {
		b.Pull = contracts.PullUp
	}
	if c.DebounceMS != nil {
		if *c.DebounceMS < 0 {
			return nil, fmt.Errorf("debounce_ms %d is negative", *c.DebounceMS)
		}
		b.Debounce = time.Duration(*c.DebounceMS) * time.Millisecond
	}
	return b, nil
}

func (c fileControl) encoder() (contracts.Control, error) {
	pinA, err := byteField("pin_a", c.PinA, 255)
	if err != nil {
		return nil, err
	}
	pinB, err := byteField("pin_b", c.PinB, 255)
	if err != nil {
		return nil, err
	}
	cc, err := byteField("cc", c.CC, 127)
	if err != nil {
		return nil, err
	}
	if pinA == pinB {
		return nil, fmt.Errorf("pin_a and pin_b are both %d", pinA)
	}

	e := contracts.RotaryEncoder{
		PinA:           pinA,
		PinB:           pinB,
		CC:             cc,
		Relative:       c.Relative,
		Reverse:        c.Reverse,
		StepsPerDetent: contracts.DefaultStepsPerDetent,
	}
	if c.Steps != nil {
		switch *c.Steps {
		case 1, 2, 4:
			e.StepsPerDetent = *c.Steps
		default:
			return nil, fmt.Errorf("steps_per_detent %d not in {1,2,4}", *c.Steps)
		}
	}
	if c.Initial != nil {
		v, err := byteField("initial_value", c.Initial, 127)
		if err != nil {
			return nil, err
		}
		e.InitialValue = &v
	}
	return e, nil
}

func byteField(name string, v *int, max int) (uint8, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	if *v < 0 || *v > max {
		return 0, fmt.Errorf("%s %d out of range [0,%d]", name, *v, max)
	}
	return uint8(*v), nil
}
