//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package udpsock

import (
	"errors"

	"golang.org/x/sys/unix"
)

func sysInit() error { return nil }

func sysShutdown() {}

func sysSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return -1, err
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

func sysBind(fd int, port uint16) error {
	// Zero Addr is INADDR_ANY.
	return unix.Bind(fd, &unix.SockaddrInet4{Port: int(port)})
}

func sysSetNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

func sysLocalPort(fd int) (uint16, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, unix.EAFNOSUPPORT
	}
	return uint16(sa4.Port), nil
}

func sysClose(fd int) error {
	return unix.Close(fd)
}

// SockaddrInet4 takes the port in host order and the address as octets,
// so it is converted to network byte order by the kernel interface.
func sysSendTo(fd int, b []byte, dst Address) (int, error) {
	sa := &unix.SockaddrInet4{Port: int(dst.Port()), Addr: dst.octets()}
	for {
		n, err := unix.SendmsgN(fd, b, nil, sa, 0)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func sysRecvFrom(fd int, b []byte) (int, Address, error) {
	for {
		n, from, err := unix.Recvfrom(fd, b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, Address{}, err
		}
		var sender Address
		if sa4, ok := from.(*unix.SockaddrInet4); ok {
			sender = AddressFromOctets(sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3], uint16(sa4.Port))
		}
		return n, sender, nil
	}
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
