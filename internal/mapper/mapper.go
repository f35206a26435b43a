// Package mapper converts button edges and encoder steps into CC values.
package mapper

import "github.com/leandrodaf/gpio2midi/sdk/contracts"

const (
	// RelativeIncrement is sent for a +1 step in relative mode.
	RelativeIncrement uint8 = 1
	// RelativeDecrement is sent for a -1 step in relative mode (two's complement -1 in 7 bits).
	RelativeDecrement uint8 = 127
)

// Button returns the CC value for an edge on a button with the given bias.
// The pressed level is low for pull-up and high for pull-down. Edges other
// than rising and falling produce no message.
func Button(pull contracts.PullMode, edge contracts.Edge) (uint8, bool) {
	if edge != contracts.EdgeRising && edge != contracts.EdgeFalling {
		return 0, false
	}
	pressed := contracts.EdgeRising
	if pull == contracts.PullUp {
		pressed = contracts.EdgeFalling
	}
	if edge == pressed {
		return contracts.MaxValue, true
	}
	return 0, true
}

// Encoder maps a ±1 step. It returns the value to send and the control's next
// stored value; relative mode leaves the stored value untouched.
func Encoder(step int8, relative bool, current uint8) (send, next uint8) {
	if relative {
		if step > 0 {
			return RelativeIncrement, current
		}
		return RelativeDecrement, current
	}

	next = current
	switch {
	case step > 0 && current < contracts.MaxValue:
		next = current + 1
	case step < 0 && current > 0:
		next = current - 1
	}
	return next, next
}
