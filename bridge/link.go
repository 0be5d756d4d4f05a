package bridge

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/Arceliar/meshbridge/types"
)

type Mode uint8

const (
	// ModeMeshRouted lets the mesh route by node address; frames carry bare IP packets.
	ModeMeshRouted Mode = iota
	// ModeEthernetTap emulates an Ethernet segment; frames carry Ethernet frames and need ARP.
	ModeEthernetTap
)

func (m Mode) String() string {
	switch m {
	case ModeMeshRouted:
		return "mesh"
	case ModeEthernetTap:
		return "tap"
	default:
		return "unknown"
	}
}

// FrameClass is what an inbound frame turned out to carry.
type FrameClass uint8

const (
	ClassOther FrameClass = iota
	ClassIP
	ClassARP
)

// LinkStrategy holds everything that differs between the two operating modes.
// The set of strategies is closed; use MeshRouted or EthernetTap.
type LinkStrategy interface {
	Mode() Mode
	Classify(frame []byte) FrameClass
	// IPIn runs on inbound IP frames before the stack sees them.
	IPIn(buf *types.Buffer)
	// ARPIn consumes an inbound ARP frame. It never reaches the stack.
	ARPIn(buf *types.Buffer)
	// Resolve prepares outbound stack output for the link.
	Resolve(buf *types.Buffer)
	// Age expires stale link address state.
	Age()

	configure(b *Bridge, ip types.Addr)
	init()
	aging() bool
	setLinkAddr(b *Bridge, mac net.HardwareAddr)
}

/**************
 * meshRouted *
 **************/

type meshRouted struct{}

// MeshRouted returns the strategy for meshes that route by node address.
// Every payload is an IP packet and no link resolution is done.
func MeshRouted() LinkStrategy {
	return meshRouted{}
}

func (meshRouted) Mode() Mode                       { return ModeMeshRouted }
func (meshRouted) Classify(frame []byte) FrameClass { return ClassIP }
func (meshRouted) IPIn(buf *types.Buffer)           {}
func (meshRouted) ARPIn(buf *types.Buffer)          { buf.Reset() }
func (meshRouted) Resolve(buf *types.Buffer)        {}
func (meshRouted) Age()                             {}
func (meshRouted) init()                            {}
func (meshRouted) aging() bool                      { return false }

func (meshRouted) configure(b *Bridge, ip types.Addr) {
	b.transport.SetNodeID(ip[3])
}

func (meshRouted) setLinkAddr(b *Bridge, mac net.HardwareAddr) {}

/***************
 * ethernetTap *
 ***************/

type ethernetTap struct {
	arp types.ARP
}

// EthernetTap returns the strategy that carries Ethernet frames over the
// mesh, using arp to resolve next hops.
func EthernetTap(arp types.ARP) LinkStrategy {
	return &ethernetTap{arp: arp}
}

func (t *ethernetTap) Mode() Mode { return ModeEthernetTap }

func (t *ethernetTap) Classify(frame []byte) FrameClass {
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return ClassOther
	}
	switch eth.EthernetType {
	case layers.EthernetTypeIPv4:
		return ClassIP
	case layers.EthernetTypeARP:
		return ClassARP
	default:
		return ClassOther
	}
}

func (t *ethernetTap) IPIn(buf *types.Buffer)    { t.arp.IPIn(buf) }
func (t *ethernetTap) ARPIn(buf *types.Buffer)   { t.arp.ARPIn(buf) }
func (t *ethernetTap) Resolve(buf *types.Buffer) { t.arp.Out(buf) }
func (t *ethernetTap) Age()                      { t.arp.Tick() }
func (t *ethernetTap) init()                     { t.arp.Init() }
func (t *ethernetTap) aging() bool               { return true }

func (t *ethernetTap) configure(b *Bridge, ip types.Addr) {}

func (t *ethernetTap) setLinkAddr(b *Bridge, mac net.HardwareAddr) {
	t.arp.SetLinkAddr(mac)
	if r, ok := b.transport.(types.Relayer); ok {
		r.SetMulticastRelay(true)
	}
}
