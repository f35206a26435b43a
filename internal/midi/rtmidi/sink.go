// Package rtmidi exposes a virtual MIDI output port through RtMidi
// (ALSA sequencer on Linux, CoreMIDI on macOS).
package rtmidi

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

// Sink is a virtual output port other applications can subscribe to.
type Sink struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out

	closeOnce sync.Once
}

// New creates the virtual port name.
func New(name string, logger contracts.Logger) (contracts.Sink, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: rtmidi: %v", contracts.ErrSink, err)
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("%w: open virtual port %q: %v", contracts.ErrSink, name, err), drv.Close())
	}
	logger.Info("virtual MIDI port created", logger.Field().String("port", name))
	return &Sink{logger: logger, drv: drv, out: out}, nil
}

func (s *Sink) Send(msg []byte) error {
	return s.out.Send(msg)
}

func (s *Sink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = multierr.Append(s.out.Close(), s.drv.Close())
		s.logger.Info("virtual MIDI port closed")
	})
	return err
}
