//go:build windows

package udpsock

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	winsockVersion = 0x0202 // 2.2

	// _IOW('f', 126, u_long)
	fionbio = 0x8004667e
)

func sysInit() error {
	var data windows.WSAData
	return windows.WSAStartup(winsockVersion, &data)
}

func sysShutdown() {
	_ = windows.WSACleanup()
}

func sysSocket() (int, error) {
	h, err := windows.Socket(windows.AF_INET, windows.SOCK_DGRAM, windows.IPPROTO_UDP)
	if err != nil {
		return -1, err
	}
	return int(h), nil
}

func sysBind(fd int, port uint16) error {
	return windows.Bind(windows.Handle(fd), &windows.SockaddrInet4{Port: int(port)})
}

// FIONBIO through WSAIoctl, the same request ioctlsocket issues.
func sysSetNonblock(fd int) error {
	on := uint32(1)
	var returned uint32
	return windows.WSAIoctl(windows.Handle(fd), fionbio,
		(*byte)(unsafe.Pointer(&on)), uint32(unsafe.Sizeof(on)),
		nil, 0, &returned, nil, 0)
}

func sysLocalPort(fd int) (uint16, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return 0, err
	}
	sa4, ok := sa.(*windows.SockaddrInet4)
	if !ok {
		return 0, windows.WSAEAFNOSUPPORT
	}
	return uint16(sa4.Port), nil
}

func sysClose(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

func sysSendTo(fd int, b []byte, dst Address) (int, error) {
	sa := &windows.SockaddrInet4{Port: int(dst.Port()), Addr: dst.octets()}
	buf := windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]}
	var sent uint32
	err := windows.WSASendto(windows.Handle(fd), &buf, 1, &sent, 0, sa, nil, nil)
	if err != nil {
		return 0, err
	}
	return int(sent), nil
}

// A datagram larger than b fails with WSAEMSGSIZE after filling b.
// That is reported as a truncated read, as on unix.
func sysRecvFrom(fd int, b []byte) (int, Address, error) {
	buf := windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]}
	var (
		n, flags uint32
		rsa      windows.RawSockaddrAny
	)
	l := int32(unsafe.Sizeof(rsa))
	err := windows.WSARecvFrom(windows.Handle(fd), &buf, 1, &n, &flags, &rsa, &l, nil, nil)
	if errors.Is(err, windows.WSAEMSGSIZE) {
		n, err = uint32(len(b)), nil
	}
	if err != nil {
		return 0, Address{}, err
	}
	var sender Address
	if sa, err := rsa.Sockaddr(); err == nil {
		if sa4, ok := sa.(*windows.SockaddrInet4); ok {
			sender = AddressFromOctets(sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3], uint16(sa4.Port))
		}
	}
	return int(n), sender, nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK)
}
