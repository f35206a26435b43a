//go:build linux || darwin
// +build linux darwin

// Package sysprio adjusts the scheduling priority of the running process.
package sysprio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Set changes the nice value of the current process. Zero leaves it alone.
// Negative values usually need CAP_SYS_NICE.
func Set(nice int) error {
	if nice == 0 {
		return nil
	}
	if nice < -20 || nice > 19 {
		return fmt.Errorf("nice %d out of range [-20,19]", nice)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, nice); err != nil {
		return fmt.Errorf("setpriority %d: %w", nice, err)
	}
	return nil
}

// Get returns the current nice value.
func Get() (int, error) {
	// The raw syscall on Linux returns 20-nice.
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, 0)
	if err != nil {
		return 0, err
	}
	return normalize(prio), nil
}
