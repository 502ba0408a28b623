package udpsock

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressFromOctets(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d uint8
		port       uint16
		want       uint32
	}{
		{name: "zero", want: 0},
		{name: "loopback", a: 127, d: 1, port: 9002, want: 0x7f000001},
		{name: "broadcast", a: 255, b: 255, c: 255, d: 255, port: 65535, want: 0xffffffff},
		{name: "private", a: 192, b: 168, c: 1, d: 20, port: 53, want: 0xc0a80114},
		{name: "high bit only", a: 128, want: 0x80000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := AddressFromOctets(tt.a, tt.b, tt.c, tt.d, tt.port)
			assert.Equal(t, tt.want, addr.Address())
			assert.Equal(t, tt.port, addr.Port())
			assert.Equal(t, tt.a, addr.A())
			assert.Equal(t, tt.b, addr.B())
			assert.Equal(t, tt.c, addr.C())
			assert.Equal(t, tt.d, addr.D())
		})
	}
}

func TestAddressOctetRoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		o := uint8(v)
		port := uint16(v * 257)
		for pos := 0; pos < 4; pos++ {
			oct := [4]uint8{0x5a, 0xa5, 0x0f, 0xf0}
			oct[pos] = o
			addr := AddressFromOctets(oct[0], oct[1], oct[2], oct[3], port)
			got := [4]uint8{addr.A(), addr.B(), addr.C(), addr.D()}
			if got != oct || addr.Port() != port {
				t.Fatalf("round trip of %v:%d gave %v:%d", oct, port, got, addr.Port())
			}
		}
	}
}

func TestAddressPackedEquivalence(t *testing.T) {
	raws := []uint32{0, 1, 0x7f000001, 0x01020304, 0xdeadbeef, 0xffffffff}
	for _, raw := range raws {
		packed := NewAddress(raw, 4000)
		unpacked := AddressFromOctets(packed.A(), packed.B(), packed.C(), packed.D(), 4000)
		assert.True(t, packed == unpacked, "%08x", raw)
		assert.True(t, packed.Equal(unpacked))
	}
}

func TestAddressEquality(t *testing.T) {
	addrs := []Address{
		{},
		NewAddress(0x7f000001, 9001),
		NewAddress(0x7f000001, 9002),
		NewAddress(0x7f000002, 9001),
		AddressFromOctets(127, 0, 0, 1, 9001),
	}
	for i, x := range addrs {
		assert.True(t, x == x)
		assert.True(t, x.Equal(x))
		for j, y := range addrs {
			assert.Equal(t, x == y, y == x, "symmetry %d %d", i, j)
			assert.Equal(t, x == y, !(x != y), "negation %d %d", i, j)
			assert.Equal(t, x == y, x.Equal(y), "Equal %d %d", i, j)
		}
	}
	assert.True(t, addrs[1] == addrs[4])
	assert.False(t, addrs[1] == addrs[2], "port must be compared")
	assert.False(t, addrs[1] == addrs[3], "address must be compared")
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "0.0.0.0:0", Address{}.String())
	assert.Equal(t, "127.0.0.1:9001", AddressFromOctets(127, 0, 0, 1, 9001).String())
	assert.Equal(t, "255.255.255.255:65535", NewAddress(0xffffffff, 65535).String())
}

func TestAddressUDPAddr(t *testing.T) {
	addr := AddressFromOctets(10, 1, 2, 3, 443)
	uAddr := addr.UDPAddr()
	assert.Equal(t, "10.1.2.3:443", uAddr.String())

	back, ok := AddressFromUDPAddr(uAddr)
	assert.True(t, ok)
	assert.Equal(t, addr, back)

	_, ok = AddressFromUDPAddr(&net.UDPAddr{IP: net.ParseIP("::1"), Port: 1})
	assert.False(t, ok)
	_, ok = AddressFromUDPAddr(nil)
	assert.False(t, ok)
}
