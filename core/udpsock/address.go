package udpsock

import (
	"net"
	"strconv"
)

// Address is an IPv4 endpoint: a 32-bit address and a port, both in host order.
// The zero value is 0.0.0.0:0. Addresses are plain values and compare with ==.
type Address struct {
	address uint32
	port    uint16
}

// NewAddress creates an Address from a packed 32-bit address and a port.
// Any value is accepted; whether it is reachable is up to the transport.
func NewAddress(address uint32, port uint16) Address {
	return Address{address: address, port: port}
}

// AddressFromOctets creates an Address from the four octets of a dotted quad,
// a being the most significant.
func AddressFromOctets(a, b, c, d uint8, port uint16) Address {
	return Address{
		address: uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d),
		port:    port,
	}
}

// AddressFromUDPAddr converts a standard library UDP address.
// It returns false if addr is nil or not an IPv4 address.
func AddressFromUDPAddr(addr *net.UDPAddr) (Address, bool) {
	if addr == nil {
		return Address{}, false
	}
	ip4 := addr.IP.To4()
	if ip4 == nil || addr.Port < 0 || addr.Port > 0xffff {
		return Address{}, false
	}
	return AddressFromOctets(ip4[0], ip4[1], ip4[2], ip4[3], uint16(addr.Port)), true
}

// Address returns the packed address in host byte order.
func (a Address) Address() uint32 { return a.address }

func (a Address) Port() uint16 { return a.port }

// A returns the most significant octet, 127 in 127.0.0.1.
func (a Address) A() uint8 { return uint8(a.address >> 24) }

// B returns the second octet.
func (a Address) B() uint8 { return uint8(a.address >> 16) }

// C returns the third octet.
func (a Address) C() uint8 { return uint8(a.address >> 8) }

// D returns the least significant octet, 1 in 127.0.0.1.
func (a Address) D() uint8 { return uint8(a.address) }

// Equal reports whether both the address and the port match.
func (a Address) Equal(o Address) bool {
	return a.address == o.address && a.port == o.port
}

// octets returns the address in network byte order.
func (a Address) octets() [4]byte {
	return [4]byte{a.A(), a.B(), a.C(), a.D()}
}

func (a Address) UDPAddr() *net.UDPAddr {
	o := a.octets()
	return &net.UDPAddr{
		IP:   net.IPv4(o[0], o[1], o[2], o[3]),
		Port: int(a.port),
	}
}

// String is meant for logs and is not a parsing contract.
func (a Address) String() string {
	b := make([]byte, 0, len("255.255.255.255:65535"))
	b = strconv.AppendUint(b, uint64(a.A()), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(a.B()), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(a.C()), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(a.D()), 10)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(a.port), 10)
	return string(b)
}
