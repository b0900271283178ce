//go:build windows

package transport

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// controlSetReuse is the net.ListenConfig.Control hook that sets
// SO_REUSEADDR before bind. Windows has no SO_REUSEPORT.
func controlSetReuse(_ string, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = setSocketOptions(fd)
	})
	if err != nil {
		return err
	}
	return sockErr
}

func setSocketOptions(fd uintptr) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}
