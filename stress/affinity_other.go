//go:build !linux

package stress

import (
	"fmt"
	"runtime"
)

// pinToCore is unsupported off Linux; workers run unpinned.
func pinToCore(core int) error {
	return fmt.Errorf("cpu affinity not supported on %s", runtime.GOOS)
}
