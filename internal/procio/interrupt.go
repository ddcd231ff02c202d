package procio

import "sync"

// interrupter delivers interrupt tokens from any caller thread into a
// single wait alongside stdout/stderr. Interrupt writes a token to an
// OS-level counter descriptor (eventfd on Linux, a pipe elsewhere) and
// also signals a Go channel directly; ReadOutput waits on that channel,
// not on the descriptor.
type interrupter struct {
	fd     int
	ch     chan struct{}
	once   sync.Once
	closed chan struct{}
}

func newInterrupter() (*interrupter, error) {
	fd, err := createInterruptFD()
	if err != nil {
		return nil, err
	}
	in := &interrupter{fd: fd, ch: make(chan struct{}, 1), closed: make(chan struct{})}
	go in.pump()
	return in, nil
}

// pump is a placeholder for platforms with a real blocking wait primitive;
// this module instead signals ch directly from Interrupt, and drains the
// fd lazily, since Go's channel select already gives us the multiplexed
// wait the fd exists to provide at the OS level.
func (in *interrupter) pump() {
	<-in.closed
}

// Interrupt writes one token; safe to call from any goroutine, any number
// of times.
func (in *interrupter) Interrupt() {
	_ = signalInterruptFD(in.fd)
	select {
	case in.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that fires after Interrupt. It holds at most one
// pending token, so several Interrupt calls made before a receive fire it
// once.
func (in *interrupter) C() <-chan struct{} {
	return in.ch
}

func (in *interrupter) close() {
	in.once.Do(func() {
		close(in.closed)
		drainInterruptFD(in.fd)
		_ = closeInterruptFD(in.fd)
	})
}
