package sockopts

import (
	"fmt"

	"github.com/apernet/udpsock/core/errors"
)

type SocketOptions struct {
	ReuseAddr           bool
	ReceiveBuffer       *int
	SendBuffer          *int
	BindInterface       *string
	FirewallMark        *uint32
	FdControlUnixSocket *string
}

// implemented in platform-specific files
var (
	reuseAddrFunc           func(fd int) error
	receiveBufferFunc       func(fd int, size int) error
	sendBufferFunc          func(fd int, size int) error
	bindInterfaceFunc       func(fd int, device string) error
	firewallMarkFunc        func(fd int, fwmark uint32) error
	fdControlUnixSocketFunc func(fd int, path string) error
)

func (o *SocketOptions) CheckSupported() (err error) {
	if o.ReuseAddr && reuseAddrFunc == nil {
		return errors.UnsupportedError{Feature: "reuseAddr"}
	}
	if o.ReceiveBuffer != nil && receiveBufferFunc == nil {
		return errors.UnsupportedError{Feature: "receiveBuffer"}
	}
	if o.SendBuffer != nil && sendBufferFunc == nil {
		return errors.UnsupportedError{Feature: "sendBuffer"}
	}
	if o.BindInterface != nil && bindInterfaceFunc == nil {
		return errors.UnsupportedError{Feature: "bindInterface"}
	}
	if o.FirewallMark != nil && firewallMarkFunc == nil {
		return errors.UnsupportedError{Feature: "fwmark"}
	}
	if o.FdControlUnixSocket != nil && fdControlUnixSocketFunc == nil {
		return errors.UnsupportedError{Feature: "fdControlUnixSocket"}
	}
	return nil
}

// Control returns a hook suitable for udpsock.Config.Control,
// or nil if no option is set.
func (o *SocketOptions) Control() func(fd int) error {
	if o == nil || *o == (SocketOptions{}) {
		return nil
	}
	return o.apply
}

func (o *SocketOptions) apply(fd int) error {
	if o.ReuseAddr && reuseAddrFunc != nil {
		err := reuseAddrFunc(fd)
		if err != nil {
			return fmt.Errorf("failed to set reuseaddr: %w", err)
		}
	}
	if o.ReceiveBuffer != nil && receiveBufferFunc != nil {
		err := receiveBufferFunc(fd, *o.ReceiveBuffer)
		if err != nil {
			return fmt.Errorf("failed to set receive buffer: %w", err)
		}
	}
	if o.SendBuffer != nil && sendBufferFunc != nil {
		err := sendBufferFunc(fd, *o.SendBuffer)
		if err != nil {
			return fmt.Errorf("failed to set send buffer: %w", err)
		}
	}
	if o.BindInterface != nil && bindInterfaceFunc != nil {
		err := bindInterfaceFunc(fd, *o.BindInterface)
		if err != nil {
			return fmt.Errorf("failed to bind to interface: %w", err)
		}
	}
	if o.FirewallMark != nil && firewallMarkFunc != nil {
		err := firewallMarkFunc(fd, *o.FirewallMark)
		if err != nil {
			return fmt.Errorf("failed to set fwmark: %w", err)
		}
	}
	if o.FdControlUnixSocket != nil && fdControlUnixSocketFunc != nil {
		err := fdControlUnixSocketFunc(fd, *o.FdControlUnixSocket)
		if err != nil {
			return fmt.Errorf("failed to send fd to control unix socket: %w", err)
		}
	}
	return nil
}
