package hoststack

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/Arceliar/meshbridge/types"
)

type linkConfigurer interface {
	configure(name string, host, mask types.Addr, mtu int) error
}

type netlinkConfigurer struct{}

func (netlinkConfigurer) configure(name string, host, mask types.Addr, mtu int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("link %s: %w", name, err)
	}
	addr := &netlink.Addr{IPNet: &net.IPNet{IP: host.IP(), Mask: net.IPMask(mask.IP())}}
	if err := netlink.AddrReplace(link, addr); err != nil {
		return fmt.Errorf("address %s: %w", addr, err)
	} else if err := netlink.LinkSetMTU(link, mtu); err != nil {
		return fmt.Errorf("mtu: %w", err)
	} else if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("link up: %w", err)
	}
	return nil
}
