//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sockopts

import (
	"golang.org/x/sys/unix"
)

func init() {
	reuseAddrFunc = reuseAddrImpl
	receiveBufferFunc = receiveBufferImpl
	sendBufferFunc = sendBufferImpl
}

func reuseAddrImpl(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func receiveBufferImpl(fd int, size int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, size)
}

func sendBufferImpl(fd int, size int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, size)
}
