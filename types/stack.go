package types

import "net"

// UDPConn describes the peer a UDP connection slot is bound to.
type UDPConn struct {
	RemoteAddr Addr
	RemotePort uint16
	LocalPort  uint16
}

// Stack is the IP protocol stack the bridge feeds. Every call works on the
// shared Buffer: on return, buf.Len() > 0 means the stack wants buf sent.
//
// In Ethernet-Tap mode, outbound buffers start with a reserved link header of
// LinkHeaderLen bytes which the ARP layer fills in.
type Stack interface {
	Init()
	Input(buf *Buffer)
	// Periodic runs the housekeeping for one TCP connection slot.
	Periodic(buf *Buffer, conn int)
	// UDPPeriodic runs the housekeeping for one UDP connection slot and
	// returns the peer that slot is bound to.
	UDPPeriodic(buf *Buffer, conn int) UDPConn
	Conns() int
	UDPConns() int
	SetHostAddr(a Addr)
	SetDefaultRouter(a Addr)
	SetNetmask(a Addr)
	HostAddr() Addr
	DefaultRouter() Addr
	Netmask() Addr
	Listen(port uint16)
}

// LinkHeaderLen is the size of the Ethernet header used in Tap mode.
const LinkHeaderLen = 14

// ARP is the address resolution layer used in Ethernet-Tap mode.
type ARP interface {
	Init()
	// IPIn learns from an inbound IPv4 frame; it never changes buf.
	IPIn(buf *Buffer)
	// ARPIn handles an inbound ARP frame, leaving a reply in buf if one is due.
	ARPIn(buf *Buffer)
	// Out fills in the link header of an outbound frame, or replaces the
	// frame with an ARP request if the next hop is unknown.
	Out(buf *Buffer)
	// Tick ages the cache by one step.
	Tick()
	SetLinkAddr(mac net.HardwareAddr)
}
