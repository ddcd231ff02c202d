//go:build linux

package procio

import (
	"golang.org/x/sys/unix"
)

// createInterruptFD opens a single counter file descriptor (eventfd) used
// to deliver interrupt tokens into the same wait as stdout/stderr.
func createInterruptFD() (int, error) {
	return unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
}

func closeInterruptFD(fd int) error {
	return unix.Close(fd)
}

// signalInterruptFD writes one token to the eventfd counter, waking any
// reader blocked on it.
func signalInterruptFD(fd int) error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(fd, buf[:])
	return err
}

// drainInterruptFD resets the eventfd counter to zero.
func drainInterruptFD(fd int) {
	var buf [8]byte
	for {
		if _, err := unix.Read(fd, buf[:]); err != nil {
			return
		}
	}
}
