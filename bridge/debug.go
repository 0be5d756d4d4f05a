package bridge

import (
	"net"

	"github.com/Arceliar/meshbridge/types"
)

type Debug struct {
	b *Bridge
}

func (d *Debug) init(b *Bridge) {
	d.b = b
}

type DebugSelfInfo struct {
	Mode       Mode
	LocalIP    types.Addr
	Gateway    types.Addr
	Subnet     types.Addr
	DNS        types.Addr
	Channel    uint8
	MAC        net.HardwareAddr
	Configured bool
	Pending    int // bytes of stack output not yet forwarded
}

func (d *Debug) GetSelf() (info DebugSelfInfo) {
	info.Mode = d.b.Mode()
	info.Configured = d.b.configured
	info.LocalIP = d.b.iface.local
	info.Gateway = d.b.iface.gateway
	info.Subnet = d.b.iface.subnet
	info.DNS = d.b.iface.dns
	info.Channel = d.b.channel
	info.MAC = d.b.MAC()
	info.Pending = d.b.buf.Len()
	return
}
