package contracts

import "errors"

// Error classes. Concrete errors wrap one of these with %w so callers can
// classify them with errors.Is.
var (
	// ErrConfig covers malformed files, out-of-range values and pin collisions.
	ErrConfig = errors.New("configuration error")
	// ErrDriver covers pins that cannot be acquired or configured.
	ErrDriver = errors.New("gpio driver error")
	// ErrSink covers failures opening or writing the MIDI output.
	ErrSink = errors.New("midi sink error")
	// ErrQueueOverflow is counted when an interrupt event is dropped.
	ErrQueueOverflow = errors.New("event queue full")
	// ErrUnsupportedBackend is returned for unknown GPIO or MIDI backend names.
	ErrUnsupportedBackend = errors.New("unsupported backend")
)
