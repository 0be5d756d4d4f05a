// Package arp resolves IPv4 next hops to link addresses for bridges that
// carry Ethernet frames over the mesh.
package arp

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Arceliar/meshbridge/types"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Host is where the table gets the local interface addressing from.
type Host interface {
	HostAddr() types.Addr
	Netmask() types.Addr
	DefaultRouter() types.Addr
}

type entry struct {
	mac  net.HardwareAddr
	time uint8 // table time when last updated
}

// Table is a small ARP cache plus the ARP request/reply logic around it.
// When full, the least recently updated entry is replaced.
// It is not safe for concurrent use.
type Table struct {
	config config
	host   Host
	mac    net.HardwareAddr
	cache  *lru.Cache[types.Addr, entry]
	time   uint8 // advanced by Tick, wraps
}

func New(host Host, opts ...Option) *Table {
	t := &Table{host: host}
	configDefaults()(&t.config)
	for _, opt := range opts {
		opt(&t.config)
	}
	if t.config.size < 1 {
		t.config.size = 1
	}
	cache, err := lru.New[types.Addr, entry](t.config.size)
	if err != nil {
		panic(err) // only fails for size < 1
	}
	t.cache = cache
	return t
}

// Init forgets every entry.
func (t *Table) Init() {
	t.cache.Purge()
	t.time = 0
}

func (t *Table) SetLinkAddr(mac net.HardwareAddr) {
	t.mac = append(net.HardwareAddr(nil), mac...)
}

// Lookup returns the cached link address for ip.
func (t *Table) Lookup(ip types.Addr) (net.HardwareAddr, bool) {
	e, ok := t.cache.Peek(ip)
	if !ok {
		return nil, false
	}
	return append(net.HardwareAddr(nil), e.mac...), true
}

func (t *Table) Len() int {
	return t.cache.Len()
}

// Tick advances the table clock and drops entries older than the max age.
func (t *Table) Tick() {
	t.time++
	for _, ip := range t.cache.Keys() {
		if e, ok := t.cache.Peek(ip); ok && t.time-e.time >= t.config.maxAge {
			t.cache.Remove(ip)
			t.config.logger.WithField("ip", ip).Debug("ARP entry expired")
		}
	}
}

func (t *Table) update(ip types.Addr, mac net.HardwareAddr) {
	if len(mac) != len(broadcastMAC) {
		return
	}
	t.cache.Add(ip, entry{mac: append(net.HardwareAddr(nil), mac...), time: t.time})
}

// IPIn learns the sender of an inbound IPv4 frame if it is on the local subnet.
func (t *Table) IPIn(buf *types.Buffer) {
	var eth layers.Ethernet
	var ip layers.IPv4
	if err := eth.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		return
	} else if err := ip.DecodeFromBytes(eth.Payload, gopacket.NilDecodeFeedback); err != nil {
		return
	}
	src, ok := types.AddrFromIP(ip.SrcIP)
	if !ok || !src.SameSubnet(t.host.HostAddr(), t.host.Netmask()) {
		return
	}
	t.update(src, eth.SrcMAC)
}

// ARPIn handles an inbound ARP frame. A request for our address is answered
// in place; anything else is consumed.
func (t *Table) ARPIn(buf *types.Buffer) {
	var eth layers.Ethernet
	var req layers.ARP
	if err := eth.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		buf.Reset()
		return
	} else if err := req.DecodeFromBytes(eth.Payload, gopacket.NilDecodeFeedback); err != nil {
		buf.Reset()
		return
	}
	if req.AddrType != layers.LinkTypeEthernet || req.Protocol != layers.EthernetTypeIPv4 {
		buf.Reset()
		return
	}
	var sender, target types.Addr
	copy(sender[:], req.SourceProtAddress)
	copy(target[:], req.DstProtAddress)
	host := t.host.HostAddr()
	switch req.Operation {
	case layers.ARPRequest:
		if target != host {
			buf.Reset()
			return
		}
		// They are about to talk to us, so remember them.
		t.update(sender, req.SourceHwAddress)
		t.write(buf,
			&layers.Ethernet{
				SrcMAC:       t.linkAddr(),
				DstMAC:       net.HardwareAddr(req.SourceHwAddress),
				EthernetType: layers.EthernetTypeARP,
			},
			&layers.ARP{
				AddrType:          layers.LinkTypeEthernet,
				Protocol:          layers.EthernetTypeIPv4,
				HwAddressSize:     6,
				ProtAddressSize:   4,
				Operation:         layers.ARPReply,
				SourceHwAddress:   t.linkAddr(),
				SourceProtAddress: host[:],
				DstHwAddress:      req.SourceHwAddress,
				DstProtAddress:    req.SourceProtAddress,
			})
	case layers.ARPReply:
		if target == host {
			t.update(sender, req.SourceHwAddress)
		}
		buf.Reset()
	default:
		buf.Reset()
	}
}

// Out fills in the Ethernet header of an outbound IPv4 frame. If the next hop
// is not cached, the frame is replaced by an ARP request for it and the
// original packet is lost; the stack's own retransmission covers that.
func (t *Table) Out(buf *types.Buffer) {
	frame := buf.Bytes()
	if len(frame) < types.LinkHeaderLen {
		buf.Reset()
		return
	}
	var ip layers.IPv4
	if err := ip.DecodeFromBytes(frame[types.LinkHeaderLen:], gopacket.NilDecodeFeedback); err != nil {
		buf.Reset()
		return
	}
	dst, _ := types.AddrFromIP(ip.DstIP)
	var mac net.HardwareAddr
	switch {
	case dst == types.Broadcast:
		mac = broadcastMAC
	case dst[0]&0xf0 == 0xe0:
		mac = net.HardwareAddr{0x01, 0x00, 0x5e, dst[1] & 0x7f, dst[2], dst[3]}
	default:
		hop := dst
		if !dst.SameSubnet(t.host.HostAddr(), t.host.Netmask()) {
			hop = t.host.DefaultRouter()
		}
		e, ok := t.cache.Peek(hop)
		if !ok {
			t.request(buf, hop)
			return
		}
		mac = e.mac
	}
	copy(frame[0:6], mac)
	copy(frame[6:12], t.linkAddr())
	binary.BigEndian.PutUint16(frame[12:14], uint16(layers.EthernetTypeIPv4))
}

func (t *Table) request(buf *types.Buffer, hop types.Addr) {
	host := t.host.HostAddr()
	t.config.logger.WithField("ip", hop).Debug("ARP request")
	t.write(buf,
		&layers.Ethernet{
			SrcMAC:       t.linkAddr(),
			DstMAC:       broadcastMAC,
			EthernetType: layers.EthernetTypeARP,
		},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   t.linkAddr(),
			SourceProtAddress: host[:],
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    hop[:],
		})
}

func (t *Table) linkAddr() net.HardwareAddr {
	if t.mac == nil {
		return make(net.HardwareAddr, 6)
	}
	return t.mac
}

func (t *Table) write(buf *types.Buffer, ls ...gopacket.SerializableLayer) {
	sb := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(sb, opts, ls...); err != nil {
		t.config.logger.WithError(err).Debug("ARP encode failed")
		buf.Reset()
		return
	}
	if !buf.Load(sb.Bytes()) {
		t.config.logger.Debug("ARP frame does not fit in buffer")
	}
}
