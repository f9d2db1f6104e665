//go:build !linux && !darwin

package serve

import "syscall"

// SO_REUSEPORT is not available on this platform.
func reusePortControl(enabled bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
