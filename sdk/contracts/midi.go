package contracts

// MaxValue is the largest 7-bit MIDI data value.
const MaxValue uint8 = 127

// CenterValue is the default starting value of an absolute encoder.
const CenterValue uint8 = 64

// Sink accepts complete MIDI messages. Implementations are not required to be
// safe for concurrent use; the dispatcher serializes every call.
type Sink interface {
	Send(msg []byte) error // Writes one complete message (3 bytes for Control Change).
	Close() error          // Closes the port and releases resources.
}
