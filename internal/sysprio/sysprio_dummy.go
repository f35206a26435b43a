//go:build !linux && !darwin
// +build !linux,!darwin

package sysprio

import (
	"fmt"
	"runtime"
)

func Set(nice int) error {
	if nice == 0 {
		return nil
	}
	return fmt.Errorf("setting process priority is not supported on %s", runtime.GOOS)
}

func Get() (int, error) { return 0, nil }
