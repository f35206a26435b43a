//go:build !linux
// +build !linux

package gpiocdev

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

const DefaultChip = "gpiochip0"

// New fails on platforms without the GPIO character device.
func New(chip string, logger contracts.Logger) (contracts.GPIODriver, error) {
	logger.Warn("gpiocdev backend requested on a non-Linux system", logger.Field().String("os", runtime.GOOS))
	return nil, fmt.Errorf("%w: gpiocdev is only available on linux, not %s", contracts.ErrUnsupportedBackend, runtime.GOOS)
}
