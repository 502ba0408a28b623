//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package udpsock

import (
	"github.com/apernet/udpsock/core/errors"
)

var errUnsupported = errors.UnsupportedError{Feature: "udpsock"}

func sysInit() error { return errUnsupported }

func sysShutdown() {}

func sysSocket() (int, error) { return -1, errUnsupported }

func sysBind(fd int, port uint16) error { return errUnsupported }

func sysSetNonblock(fd int) error { return errUnsupported }

func sysLocalPort(fd int) (uint16, error) { return 0, errUnsupported }

func sysClose(fd int) error { return nil }

func sysSendTo(fd int, b []byte, dst Address) (int, error) { return 0, errUnsupported }

func sysRecvFrom(fd int, b []byte) (int, Address, error) { return 0, Address{}, errUnsupported }

func isWouldBlock(err error) bool { return false }
