// Package radio is a mesh transport that stands in for an nRF24 radio
// network, carrying frames as UDP multicast datagrams. Nodes on different
// channels ignore each other, as they would on air.
package radio

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/Arceliar/meshbridge/types"
)

type packetConn interface {
	ReadFrom(b []byte) (n int, cm *ipv4.ControlMessage, src net.Addr, err error)
	WriteTo(b []byte, cm *ipv4.ControlMessage, dst net.Addr) (n int, err error)
	Close() error
}

// Radio implements types.Transport and types.Relayer. Apart from Close, its
// methods must be called from one goroutine.
type Radio struct {
	config     Config
	logger     logrus.FieldLogger
	conn       packetConn
	group      net.Addr
	origin     uint32 // tells our own looped-back datagrams apart
	recv       chan []byte
	last       []byte // backs the payload returned by the last Poll
	started    bool
	channel    uint8
	address    uint16
	nodeID     uint8
	relay      bool
	nextID     uint16
	closeMutex sync.Mutex
	closed     chan struct{}
}

// Open joins the multicast group and starts receiving. The radio stays
// silent until Begin.
func Open(cfg Config, logger logrus.FieldLogger) (*Radio, error) {
	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	lc := net.ListenConfig{Control: reuse}
	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", group.Port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	pc := ipv4.NewPacketConn(conn)
	var ifi *net.Interface
	if cfg.Interface != "" {
		if ifi, err = net.InterfaceByName(cfg.Interface); err != nil {
			conn.Close()
			return nil, fmt.Errorf("interface %s: %w", cfg.Interface, err)
		}
		if err = pc.SetMulticastInterface(ifi); err != nil {
			conn.Close()
			return nil, fmt.Errorf("multicast interface: %w", err)
		}
	}
	if err = pc.JoinGroup(ifi, group); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join group %s: %w", group, err)
	}
	if err = pc.SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("multicast loopback: %w", err)
	}
	return newRadio(cfg, pc, group, logger), nil
}

func reuse(network, address string, c syscall.RawConn) (err error) {
	_ = c.Control(func(fd uintptr) {
		if err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return
		}
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	return
}

func newRadio(cfg Config, conn packetConn, group net.Addr, logger logrus.FieldLogger) *Radio {
	r := &Radio{
		config: cfg,
		logger: logger,
		conn:   conn,
		group:  group,
		recv:   make(chan []byte, cfg.RecvQueue),
		closed: make(chan struct{}),
	}
	var bs [4]byte
	if _, err := rand.Read(bs[:]); err != nil {
		panic(err)
	}
	r.origin = binary.LittleEndian.Uint32(bs[:])
	if cfg.Master {
		r.address = types.MasterAddress
	}
	go r.reader()
	return r
}

func (r *Radio) reader() {
	for {
		bs := allocBytes(wireEnvelopeSize + r.config.MaxPayload)
		n, _, _, err := r.conn.ReadFrom(bs)
		if err != nil {
			freeBytes(bs)
			select {
			case <-r.closed:
				return
			default:
			}
			r.logger.WithError(err).Debug("Radio read failed")
			continue
		}
		bs = bs[:n]
		if origin, ok := wireOrigin(bs); !ok || origin == r.origin {
			freeBytes(bs)
			continue
		}
		select {
		case r.recv <- bs:
		default:
			freeBytes(bs) // queue full, lost on air
		}
	}
}

// Begin tunes the radio and sets its address. A master keeps address 00.
func (r *Radio) Begin(channel uint8, address uint16) {
	r.channel = channel
	if !r.config.Master {
		r.address = address
	}
	r.started = true
	r.logger.WithFields(logrus.Fields{
		"channel": channel,
		"address": fmt.Sprintf("0%o", r.address),
	}).Debug("Radio started")
}

func (r *Radio) SetChannel(channel uint8) {
	r.channel = channel
}

func (r *Radio) Started() bool {
	return r.started
}

// SetNodeID sets the mesh identity. Leaves are addressed by their node id.
func (r *Radio) SetNodeID(id uint8) {
	r.nodeID = id
	if !r.config.Master {
		r.address = uint16(id)
	}
}

// SetMulticastRelay makes the radio accept every data frame on its channel.
func (r *Radio) SetMulticastRelay(relay bool) {
	r.relay = relay
}

func (r *Radio) Channel() uint8 {
	return r.channel
}

func (r *Radio) Address() uint16 {
	return r.address
}

func (r *Radio) NodeID() uint8 {
	return r.nodeID
}

func (r *Radio) Poll() (types.Frame, bool) {
	if r.last != nil {
		freeBytes(r.last)
		r.last = nil
	}
	for {
		select {
		case bs := <-r.recv:
			channel, _, h, payload, err := wireDecode(bs)
			if err != nil || !r.accept(channel, h) {
				freeBytes(bs)
				continue
			}
			r.last = bs
			return types.Frame{Header: h, Payload: payload}, true
		default:
			return types.Frame{}, false
		}
	}
}

func (r *Radio) accept(channel uint8, h types.Header) bool {
	if !r.started || channel != r.channel {
		return false
	}
	if r.relay {
		return h.Type == types.ExternalData
	}
	return h.To == r.address
}

func (r *Radio) Write(h types.Header, payload []byte) bool {
	if err := r.write(h, payload); err != nil {
		r.logger.WithError(err).WithField("len", len(payload)).Debug("Radio write failed")
		return false
	}
	return true
}

func (r *Radio) write(h types.Header, payload []byte) error {
	select {
	case <-r.closed:
		return ClosedError{}
	default:
	}
	if !r.started {
		return NotStartedError{}
	}
	if len(payload) > r.config.MaxPayload {
		return OversizedMessageError{}
	}
	h.From = r.address
	h.ID = r.nextID
	r.nextID++
	if h.To == types.MasterAddress && h.Type == types.ExternalData && !r.relay {
		h.To = r.route(payload)
	}
	bs := wireEncode(allocBytes(0), r.channel, r.origin, h, payload)
	defer freeBytes(bs)
	_, err := r.conn.WriteTo(bs, nil, r.group)
	return err
}

// route picks the next node for data sent to the master. Leaves always hand
// it to the master; the master delivers by the last byte of the IPv4
// destination, which is the node id of the leaf that owns it.
func (r *Radio) route(payload []byte) uint16 {
	if !r.config.Master {
		return types.MasterAddress
	}
	hdr, err := ipv4.ParseHeader(payload)
	if err != nil {
		return types.MasterAddress
	}
	dst, ok := types.AddrFromIP(hdr.Dst)
	if !ok {
		return types.MasterAddress
	}
	return uint16(dst[3])
}

func (r *Radio) Close() error {
	r.closeMutex.Lock()
	defer r.closeMutex.Unlock()
	select {
	case <-r.closed:
		return ClosedError{}
	default:
	}
	close(r.closed)
	return r.conn.Close()
}
