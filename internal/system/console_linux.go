//go:build linux

package system

import "golang.org/x/sys/unix"

func setMode(path string, mode int) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.IoctlSetInt(fd, kdSetMode, mode)
}
