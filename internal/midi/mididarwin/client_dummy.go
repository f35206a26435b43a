//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

// New fails outside macOS.
func New(name string, logger contracts.Logger) (contracts.Sink, error) {
	logger.Warn("CoreMIDI backend requested on a non-macOS system", logger.Field().String("os", runtime.GOOS))
	return nil, fmt.Errorf("%w: coremidi is only available on darwin, not %s", contracts.ErrUnsupportedBackend, runtime.GOOS)
}
