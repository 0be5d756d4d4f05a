package bridge

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/Arceliar/meshbridge/types"
)

// Begin configures the bridge with dns and gateway at ip's .1 and a /24 subnet.
func (b *Bridge) Begin(ip types.Addr) {
	b.BeginWithDNS(ip, ip.WithLast(1))
}

// BeginWithDNS is Begin with an explicit dns server.
func (b *Bridge) BeginWithDNS(ip, dns types.Addr) {
	b.BeginWithGateway(ip, dns, ip.WithLast(1))
}

// BeginWithGateway is Begin with an explicit dns server and gateway.
func (b *Bridge) BeginWithGateway(ip, dns, gateway types.Addr) {
	b.BeginWithSubnet(ip, dns, gateway, types.DefaultSubnet)
}

// BeginWithSubnet sets every address explicitly.
func (b *Bridge) BeginWithSubnet(ip, dns, gateway, subnet types.Addr) {
	b.Configure(ip, dns, gateway, subnet)
}

// Configure replaces the interface addressing, re-arms the timers and
// re-initializes the stack. It must be called before the first Tick. Calling
// it again starts over; nothing carries across. Inputs are not validated.
func (b *Bridge) Configure(ip, dns, gateway, subnet types.Addr) {
	b.link.configure(b, ip)
	b.stack.SetHostAddr(ip)
	b.stack.SetDefaultRouter(gateway)
	b.stack.SetNetmask(subnet)
	b.iface = interfaceConfig{
		local:   ip,
		gateway: gateway,
		subnet:  subnet,
		dns:     dns, // the stack has no slot for it
	}
	b.periodic.set(b.config.clock, b.config.periodicInterval)
	if b.link.aging() {
		b.aging.set(b.config.clock, b.config.arpInterval)
	} else {
		b.aging = timer{}
	}
	b.stack.Init()
	b.link.init()
	b.buf.Reset()
	b.configured = true
	b.logger.WithFields(logrus.Fields{
		"mode":    b.link.Mode(),
		"ip":      ip,
		"gateway": gateway,
		"subnet":  subnet,
		"dns":     dns,
	}).Debug("Bridge configured")
}

// SetGateway changes only the default router.
func (b *Bridge) SetGateway(gateway types.Addr) {
	b.stack.SetDefaultRouter(gateway)
	b.iface.gateway = gateway
}

// Listen asks the stack to accept TCP connections on port.
func (b *Bridge) Listen(port uint16) {
	b.stack.Listen(port)
}

func (b *Bridge) LocalIP() types.Addr {
	return b.stack.HostAddr()
}

func (b *Bridge) SubnetMask() types.Addr {
	return b.stack.Netmask()
}

func (b *Bridge) GatewayIP() types.Addr {
	return b.stack.DefaultRouter()
}

func (b *Bridge) DNSServerIP() types.Addr {
	return b.iface.dns
}

// SetChannel selects the radio channel. It only reaches the radio directly
// if the radio is already running; otherwise it is used by the next SetMac.
func (b *Bridge) SetChannel(channel uint8) {
	b.channel = channel
	if b.transport.Started() {
		b.transport.SetChannel(channel)
	}
}

// Channel returns the radio channel last set, or 0 if none was.
func (b *Bridge) Channel() uint8 {
	return b.channel
}

// SetMac starts the radio with the given node address. The link address is
// derived from it as 52:46:32:34:lo:hi. Call it before Begin.
func (b *Bridge) SetMac(address uint16) {
	b.mac = macFor(address)
	b.link.setLinkAddr(b, b.mac)
	if b.channel == 0 {
		b.channel = b.config.defaultChannel
	}
	b.transport.Begin(b.channel, address)
}

// MAC returns the link address derived by SetMac, or nil.
func (b *Bridge) MAC() net.HardwareAddr {
	return append(net.HardwareAddr(nil), b.mac...)
}

func macFor(address uint16) net.HardwareAddr {
	return net.HardwareAddr{0x52, 0x46, 0x32, 0x34, byte(address), byte(address >> 8)}
}
