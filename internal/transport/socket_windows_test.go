//go:build windows

package transport

import (
	"syscall"
	"testing"

	"golang.org/x/sys/windows"
)

// TestSetSocketOptions_Windows verifies SO_REUSEADDR is actually set on
// the socket, not just that setSocketOptions returns no error. Windows
// has no SO_REUSEPORT, so that half of the unix test has no analogue
// here.
func TestSetSocketOptions_Windows(t *testing.T) {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_UDP)
	if err != nil {
		t.Fatalf("Socket() failed: %v", err)
	}
	defer func() { _ = syscall.Close(fd) }()

	if err := setSocketOptions(uintptr(fd)); err != nil {
		t.Fatalf("setSocketOptions() failed: %v", err)
	}

	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR)
	if err != nil {
		t.Fatalf("GetsockoptInt(SO_REUSEADDR) failed: %v", err)
	}
	if v == 0 {
		t.Error("SO_REUSEADDR not set")
	}
}
