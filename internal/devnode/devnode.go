// Package devnode registers the screensaver's device node. The node has no
// behaviour of its own; registering it claims the display for one process.
package devnode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMajor = 61
	DefaultName  = "myscreensaver"
)

var ErrNodeBusy = errors.New("device node already registered")

// Node is a registrable no-op device node backed by a lock file.
type Node struct {
	Major    int
	Name     string
	LockPath string

	mu   sync.Mutex
	file *os.File
}

func New(lockPath string) *Node {
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), DefaultName+".lock")
	}
	return &Node{Major: DefaultMajor, Name: DefaultName, LockPath: lockPath}
}

// Open always succeeds.
func (n *Node) Open() error { return nil }

// Release always succeeds.
func (n *Node) Release() error { return nil }

// Register claims the node. It fails with ErrNodeBusy while another holder
// has it registered.
func (n *Node) Register() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.file != nil {
		return fmt.Errorf("%s: %w", n.Name, ErrNodeBusy)
	}
	f, err := os.OpenFile(n.LockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", n.LockPath, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return fmt.Errorf("%s (major %d): %w", n.Name, n.Major, err)
	}
	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%s %d %d\n", n.Name, n.Major, os.Getpid())
	}
	n.file = f
	return nil
}

// Unregister releases the node; the lock file is left in place. It is a
// no-op when not registered.
func (n *Node) Unregister() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.file == nil {
		return nil
	}
	f := n.file
	n.file = nil
	// The file stays behind: unlinking a flock'd path lets a waiter lock
	// the old inode while a newcomer locks a fresh one.
	return errors.Join(unlockFile(f), f.Close())
}

func (n *Node) Registered() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.file != nil
}
