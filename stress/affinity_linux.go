//go:build linux

package stress

import (
	"golang.org/x/sys/unix"
)

// pinToCore restricts the calling process to a single CPU core.
func pinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
