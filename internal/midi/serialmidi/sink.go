// Package serialmidi writes MIDI to a UART wired to a 5-pin DIN socket.
package serialmidi

import (
	"errors"
	"fmt"
	"io"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"go.bug.st/serial"
)

// BaudRate is the MIDI 1.0 DIN wire speed.
const BaudRate = 31250

// DefaultDevice is the primary UART on Raspberry Pi OS.
const DefaultDevice = "/dev/serial0"

var errShortWrite = errors.New("serial port accepted no bytes")

// Sink writes raw messages to a serial port.
type Sink struct {
	logger contracts.Logger
	port   io.WriteCloser
}

// Open configures device for 31250 baud 8N1.
func Open(device string, logger contracts.Logger) (contracts.Sink, error) {
	if device == "" {
		device = DefaultDevice
	}
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", contracts.ErrSink, device, err)
	}
	logger.Info("serial MIDI port opened",
		logger.Field().String("device", device),
		logger.Field().Int("baud", BaudRate))
	return newSink(port, logger), nil
}

func newSink(port io.WriteCloser, logger contracts.Logger) *Sink {
	return &Sink{logger: logger, port: port}
}

// Send writes msg completely, retrying partial writes.
func (s *Sink) Send(msg []byte) error {
	for len(msg) > 0 {
		n, err := s.port.Write(msg)
		if err != nil {
			return err
		}
		if n == 0 {
			return errShortWrite
		}
		msg = msg[n:]
	}
	return nil
}

func (s *Sink) Close() error {
	return s.port.Close()
}
