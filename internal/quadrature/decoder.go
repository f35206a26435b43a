// Package quadrature decodes two-phase rotary encoder samples into detent steps.
package quadrature

import "github.com/leandrodaf/gpio2midi/sdk/contracts"

// Phase is the 2-bit sample A<<1 | B.
type Phase uint8

// PhaseOf packs two pin levels into a Phase.
func PhaseOf(a, b contracts.Level) Phase {
	var p Phase
	if a {
		p |= 0b10
	}
	if b {
		p |= 0b01
	}
	return p
}

// transitions is indexed by prev<<2 | next. Gray-code neighbours score ±1;
// unchanged and double-bit jumps score 0.
var transitions = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Movement returns the table contribution of a prev → next transition.
func Movement(prev, next Phase) int8 {
	return transitions[(prev&0b11)<<2|(next&0b11)]
}

// Decoder turns successive phase samples into ±1 steps. It is not safe for
// concurrent use.
type Decoder struct {
	prev      Phase
	accum     int8
	threshold int8
	sign      int8
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithReverse flips the sign of every emitted step.
func WithReverse() Option {
	return func(d *Decoder) { d.sign = -1 }
}

// WithStepsPerDetent sets how many valid transitions make one step. Values
// outside 1..4 are ignored.
func WithStepsPerDetent(n int) Option {
	return func(d *Decoder) {
		if n >= 1 && n <= 4 {
			d.threshold = int8(n)
		}
	}
}

// NewDecoder returns a decoder seeded with the encoder's current phase.
func NewDecoder(initial Phase, opts ...Option) *Decoder {
	d := &Decoder{
		prev:      initial & 0b11,
		threshold: contracts.DefaultStepsPerDetent,
		sign:      1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Update feeds one sample. It returns the step direction and true once the
// accumulated movement reaches the threshold, and 0, false otherwise.
func (d *Decoder) Update(next Phase) (int8, bool) {
	next &= 0b11
	if next == d.prev {
		return 0, false
	}
	d.accum += Movement(d.prev, next)
	d.prev = next

	if d.accum >= d.threshold || d.accum <= -d.threshold {
		step := int8(1)
		if d.accum < 0 {
			step = -1
		}
		d.accum = 0
		return step * d.sign, true
	}
	return 0, false
}

// Phase returns the last accepted sample.
func (d *Decoder) Phase() Phase { return d.prev }

// Accumulator returns the partial movement since the last emitted step.
func (d *Decoder) Accumulator() int8 { return d.accum }
