//go:build !linux

package procio

import (
	"os"
	"time"
)

// On non-Linux platforms the interrupt channel falls back to a pipe, as
// the original does; Windows' overlapped-I/O auxiliary event has no
// portable Go equivalent outside this module's scope.
type interruptPipe struct {
	r, w *os.File
}

var pipes = map[int]*interruptPipe{}
var nextFD int

func createInterruptFD() (int, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return -1, err
	}
	nextFD++
	fd := nextFD
	pipes[fd] = &interruptPipe{r: r, w: w}
	return fd, nil
}

func closeInterruptFD(fd int) error {
	p, ok := pipes[fd]
	if !ok {
		return nil
	}
	delete(pipes, fd)
	_ = p.r.Close()
	return p.w.Close()
}

func signalInterruptFD(fd int) error {
	p, ok := pipes[fd]
	if !ok {
		return nil
	}
	_, err := p.w.Write([]byte{1})
	return err
}

func drainInterruptFD(fd int) {
	p, ok := pipes[fd]
	if !ok {
		return
	}
	buf := make([]byte, 64)
	_ = p.r.SetReadDeadline(time.Now())
	for {
		if _, err := p.r.Read(buf); err != nil {
			return
		}
	}
}
