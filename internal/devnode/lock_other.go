//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package devnode

import (
	"os"
	"sync"
)

// Without flock, locks are only tracked within this process.
var (
	heldMu sync.Mutex
	held   = map[string]bool{}
)

func lockFile(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	if held[f.Name()] {
		return ErrNodeBusy
	}
	held[f.Name()] = true
	return nil
}

func unlockFile(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	delete(held, f.Name())
	return nil
}
