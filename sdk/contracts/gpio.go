package contracts

import (
	"time"
)

// Level is the logic level read from a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// PullMode selects the internal bias resistor of an input pin.
type PullMode int

const (
	// PullDown biases the pin low; a pressed button reads high (active-high).
	PullDown PullMode = iota
	// PullUp biases the pin high; a pressed button reads low (active-low).
	PullUp
)

func (p PullMode) String() string {
	if p == PullUp {
		return "pull-up"
	}
	return "pull-down"
}

// Edge is the direction of a level transition reported by an interrupt.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "none"
	}
}

// EdgeEvent is a single interrupt observation queued for the consumer loop.
type EdgeEvent struct {
	Pin  uint8     // BCM pin number the edge was seen on.
	Edge Edge      // Direction of the transition.
	Time time.Time // When the driver reported the edge.
}

// EdgeHandler receives edges from the driver's interrupt context. It must not block.
type EdgeHandler func(EdgeEvent)

// Pin is an acquired input pin. Ownership is exclusive to the caller until Close.
type Pin interface {
	Number() uint8
	Read() (Level, error)
	Close() error
}

// GPIODriver acquires and configures input pins.
type GPIODriver interface {
	// Input acquires pin as a plain input with the given bias.
	Input(pin uint8, pull PullMode) (Pin, error)

	// Interrupt acquires pin as an input and invokes handler on every
	// debounced edge in both directions.
	Interrupt(pin uint8, pull PullMode, debounce time.Duration, handler EdgeHandler) (Pin, error)

	// Close releases driver-wide resources. Pins should be closed first.
	Close() error
}
