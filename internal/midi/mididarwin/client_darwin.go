//go:build darwin
// +build darwin

// Package mididarwin publishes a CoreMIDI virtual source on macOS.
package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// ErrSourceClosed is returned by Send after Close.
var ErrSourceClosed = errors.New("coremidi source closed")

// Sink is a virtual source visible to every CoreMIDI client on the host.
type Sink struct {
	logger contracts.Logger
	client coremidi.Client
	source coremidi.Source

	mu     sync.Mutex
	closed bool
}

// New registers a CoreMIDI client and a virtual source, both named name.
func New(name string, logger contracts.Logger) (contracts.Sink, error) {
	client, err := coremidi.NewClient(name)
	if err != nil {
		return nil, fmt.Errorf("%w: coremidi client: %v", contracts.ErrSink, err)
	}
	source, err := coremidi.NewSource(client, name)
	if err != nil {
		return nil, fmt.Errorf("%w: coremidi source %q: %v", contracts.ErrSink, name, err)
	}
	logger.Info("CoreMIDI virtual source created", logger.Field().String("port", name))

	return &Sink{logger: logger, client: client, source: source}, nil
}

// Send publishes msg to every destination connected to the source.
func (s *Sink) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	packet := coremidi.NewPacket(msg, 0)
	return packet.Received(&s.source)
}

// Close stops publishing. The source itself is released when the process exits.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.logger.Info("CoreMIDI virtual source closed")
	}
	return nil
}
