// Package miditest provides a recording MIDI sink for tests.
package miditest

import (
	"runtime"
	"sync"
)

// Recorder is a contracts.Sink that appends every byte it is given to one
// shared stream. Bytes are written one at a time with a scheduler yield in
// between, so unsynchronised concurrent senders would interleave.
type Recorder struct {
	mu      sync.Mutex
	stream  []byte
	sendErr error
	closed  bool
	calls   int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent sends return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendErr = err
}

func (r *Recorder) Send(msg []byte) error {
	r.mu.Lock()
	r.calls++
	err := r.sendErr
	r.mu.Unlock()
	if err != nil {
		return err
	}

	for _, b := range msg {
		r.mu.Lock()
		r.stream = append(r.stream, b)
		r.mu.Unlock()
		runtime.Gosched()
	}
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Bytes returns a copy of the recorded stream.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.stream...)
}

// Messages splits the stream into 3-byte messages. A trailing partial
// message is returned as is.
func (r *Recorder) Messages() [][]byte {
	stream := r.Bytes()
	var msgs [][]byte
	for len(stream) > 0 {
		n := 3
		if len(stream) < n {
			n = len(stream)
		}
		msgs = append(msgs, stream[:n])
		stream = stream[n:]
	}
	return msgs
}

// Len is the number of complete 3-byte messages recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stream) / 3
}

// Calls is the number of Send invocations, including failed ones.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
