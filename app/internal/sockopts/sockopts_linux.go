//go:build linux

package sockopts

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const (
	fdControlUnixTimeout = 3 * time.Second
)

func init() {
	bindInterfaceFunc = bindInterfaceImpl
	firewallMarkFunc = firewallMarkImpl
	fdControlUnixSocketFunc = fdControlUnixSocketImpl
}

func bindInterfaceImpl(fd int, device string) error {
	return unix.BindToDevice(fd, device)
}

func firewallMarkImpl(fd int, fwmark uint32) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_MARK, int(fwmark))
}

// fdControlUnixSocketImpl hands the descriptor to a controller listening on a
// unix socket (e.g. an Android VpnService protecting it) and waits for a
// one-byte acknowledgement.
func fdControlUnixSocketImpl(fd int, path string) error {
	socketFd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("failed to create unix socket: %w", err)
	}
	defer unix.Close(socketFd)

	timeout := unix.NsecToTimeval(fdControlUnixTimeout.Nanoseconds())
	_ = unix.SetsockoptTimeval(socketFd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &timeout)
	_ = unix.SetsockoptTimeval(socketFd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &timeout)

	err = unix.Connect(socketFd, &unix.SockaddrUnix{Name: path})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	err = unix.Sendmsg(socketFd, nil, unix.UnixRights(fd), nil, 0)
	if err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}

	dummy := []byte{1}
	n, err := unix.Read(socketFd, dummy)
	if err != nil {
		return fmt.Errorf("failed to receive: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("socket closed unexpectedly")
	}

	return nil
}
