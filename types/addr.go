package types

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Addr is an IPv4 address, stored as its four octets in network order.
// It is a plain value: index it like a slice and compare it with ==.
type Addr [4]byte

// Unspecified is 0.0.0.0.
var Unspecified Addr

// DefaultSubnet is the netmask used when none is given.
var DefaultSubnet = Addr{255, 255, 255, 0}

// Broadcast is the limited broadcast address 255.255.255.255.
var Broadcast = Addr{255, 255, 255, 255}

func AddrFrom4(a, b, c, d byte) Addr {
	return Addr{a, b, c, d}
}

// AddrFromUint32 builds an Addr from a host integer, most significant octet first.
// 0xC0A8010A is 192.168.1.10 on every platform.
func AddrFromUint32(u uint32) Addr {
	var a Addr
	binary.BigEndian.PutUint32(a[:], u)
	return a
}

// Uint32 is the inverse of AddrFromUint32.
func (a Addr) Uint32() uint32 {
	return binary.BigEndian.Uint32(a[:])
}

// AddrFromIP converts a net.IP, returning false if it is not an IPv4 address.
func AddrFromIP(ip net.IP) (Addr, bool) {
	var a Addr
	ip4 := ip.To4()
	if ip4 == nil {
		return a, false
	}
	copy(a[:], ip4)
	return a, true
}

// ParseAddr parses a dotted-quad string.
func ParseAddr(s string) (Addr, error) {
	a, ok := AddrFromIP(net.ParseIP(s))
	if !ok {
		return a, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return a, nil
}

func (a Addr) IP() net.IP {
	return net.IPv4(a[0], a[1], a[2], a[3]).To4()
}

// WithLast returns a copy of a with its last octet replaced.
func (a Addr) WithLast(b byte) Addr {
	a[3] = b
	return a
}

func (a Addr) IsZero() bool {
	return a == Unspecified
}

// Mask returns a with every bit not set in mask cleared.
func (a Addr) Mask(mask Addr) Addr {
	return AddrFromUint32(a.Uint32() & mask.Uint32())
}

// SameSubnet reports whether a and b share a network under mask.
func (a Addr) SameSubnet(b, mask Addr) bool {
	return a.Mask(mask) == b.Mask(mask)
}

func (a Addr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}
