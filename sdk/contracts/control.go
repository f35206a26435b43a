package contracts

import "time"

// DefaultButtonDebounce is what configuration files use when a button does
// not set debounce_ms.
const DefaultButtonDebounce = 5 * time.Millisecond

// DefaultStepsPerDetent is the number of valid quadrature transitions in one
// mechanical click of a typical encoder.
const DefaultStepsPerDetent = 4

// Control is a configuration-time description of one physical control.
// The set of implementations is closed: Button and RotaryEncoder.
type Control interface {
	// PrimaryPin is the pin the control is keyed by in the registry.
	PrimaryPin() uint8
	// ControlNumber is the MIDI CC number the control emits on.
	ControlNumber() uint8

	isControl()
}

// Button is a momentary push button on a single pin, reported through interrupts.
type Button struct {
	Pin      uint8
	CC       uint8
	Pull     PullMode
	Debounce time.Duration // Zero disables debouncing.
}

func (b Button) PrimaryPin() uint8    { return b.Pin }
func (b Button) ControlNumber() uint8 { return b.CC }
func (Button) isControl()             {}

// RotaryEncoder is a two-phase quadrature encoder sampled by the poll loop.
type RotaryEncoder struct {
	PinA     uint8
	PinB     uint8
	CC       uint8
	Relative bool // Send 1 / 127 per step instead of an absolute value.

	// Reverse flips the direction reported by the decoder, for encoders wired
	// with A and B swapped.
	Reverse bool
	// StepsPerDetent is the quadrature transitions per emitted step (1, 2 or 4).
	// Zero selects DefaultStepsPerDetent.
	StepsPerDetent int
	// InitialValue seeds absolute mode. Nil selects CenterValue.
	InitialValue *uint8
}

func (e RotaryEncoder) PrimaryPin() uint8    { return e.PinA }
func (e RotaryEncoder) ControlNumber() uint8 { return e.CC }
func (RotaryEncoder) isControl()             {}
