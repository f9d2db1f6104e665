//go:build linux || darwin

package serve

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl returns a ListenConfig control hook that sets
// SO_REUSEPORT, letting several processes bind the same address for
// kernel-level load spreading.
func reusePortControl(enabled bool) func(network, address string, c syscall.RawConn) error {
	if !enabled {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		if err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}); err != nil {
			return err
		}
		return serr
	}
}
