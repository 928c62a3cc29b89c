//go:build !linux

package system

import "errors"

func setMode(path string, mode int) error {
	return errors.New("console modes are only supported on linux")
}
