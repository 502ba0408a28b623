package udpsock

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a socket that is not open.
	ErrClosed = errors.New("udpsock: socket is closed")
	// ErrWouldBlock means no datagram was pending, or the send buffer was full.
	ErrWouldBlock = errors.New("udpsock: operation would block")
	// ErrShortWrite means the transport accepted fewer bytes than requested.
	ErrShortWrite = errors.New("udpsock: short write")
	// ErrNotInitialized is returned when opening a socket before Subsystem.Init.
	ErrNotInitialized = errors.New("udpsock: subsystem not initialized")
)

// Open steps, used as OpError.Op.
const (
	opSocket    = "socket"
	opControl   = "control"
	opBind      = "bind"
	opNonblock  = "nonblock"
	opLocalAddr = "getsockname"
)

// OpError describes which step of opening a socket failed.
type OpError struct {
	Op   string
	Port uint16
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("udpsock: %s (port %d): %v", e.Op, e.Port, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
