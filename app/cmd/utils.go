package cmd

import (
	"errors"
	"fmt"
	"net"

	"github.com/docker/go-units"

	"github.com/apernet/udpsock/core/udpsock"
)

type configError struct {
	Field string
	Err   error
}

func (e configError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Err)
}

func (e configError) Unwrap() error {
	return e.Err
}

// parseSize accepts both plain byte counts and human units ("64KiB", "1MB").
func parseSize(s string) (int, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(^uint32(0)>>1) {
		return 0, fmt.Errorf("size %s out of range", s)
	}
	return int(n), nil
}

// resolveAddress resolves host:port to an IPv4 endpoint.
func resolveAddress(hostport string) (udpsock.Address, error) {
	uAddr, err := net.ResolveUDPAddr("udp4", hostport)
	if err != nil {
		return udpsock.Address{}, err
	}
	addr, ok := udpsock.AddressFromUDPAddr(uAddr)
	if !ok {
		return udpsock.Address{}, errors.New("not an IPv4 address")
	}
	return addr, nil
}
