// Package hoststack lets the host kernel act as the bridge's IP stack,
// exchanging packets with it through a TUN interface.
package hoststack

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.zx2c4.com/wireguard/tun"

	"github.com/Arceliar/meshbridge/types"
)

const (
	tunOffsetBytes = 16
	tunReadSize    = 65535
)

type device interface {
	Read(bufs [][]byte, sizes []int, offset int) (n int, err error)
	Write(bufs [][]byte, offset int) (int, error)
	BatchSize() int
	Close() error
}

// Stack implements types.Stack. The kernel does the TCP/UDP work, so UDP
// traffic arrives with everything else and there are no UDP slots.
// Apart from Close, its methods must be called from one goroutine.
type Stack struct {
	config     Config
	logger     logrus.FieldLogger
	dev        device
	name       string
	link       linkConfigurer
	host       types.Addr
	router     types.Addr
	mask       types.Addr
	listening  map[uint16]struct{}
	recv       chan []byte // packets the kernel routed into the interface
	closeMutex sync.Mutex
	closed     chan struct{}
}

// Open creates the TUN interface. It is configured by Init.
func Open(cfg Config, logger logrus.FieldLogger) (*Stack, error) {
	dev, err := tun.CreateTUN(cfg.Name, cfg.MTU)
	if err != nil {
		return nil, fmt.Errorf("create tun %s: %w", cfg.Name, err)
	}
	name, err := dev.Name()
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("tun name: %w", err)
	}
	return newStack(cfg, dev, name, netlinkConfigurer{}, logger), nil
}

func newStack(cfg Config, dev device, name string, link linkConfigurer, logger logrus.FieldLogger) *Stack {
	s := &Stack{
		config:    cfg,
		logger:    logger,
		dev:       dev,
		name:      name,
		link:      link,
		listening: make(map[uint16]struct{}),
		recv:      make(chan []byte, cfg.Queue),
		closed:    make(chan struct{}),
	}
	go s.reader()
	return s
}

func (s *Stack) reader() {
	batch := s.dev.BatchSize()
	bufs := make([][]byte, batch)
	sizes := make([]int, batch)
	for idx := range bufs {
		bufs[idx] = make([]byte, tunOffsetBytes+tunReadSize)
	}
	for {
		n, err := s.dev.Read(bufs, sizes, tunOffsetBytes)
		for idx := 0; idx < n; idx++ {
			pkt := bufs[idx][tunOffsetBytes : tunOffsetBytes+sizes[idx]]
			select {
			case s.recv <- append([]byte(nil), pkt...):
			default:
				s.logger.Debug("Kernel packet dropped, queue full")
			}
		}
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.logger.WithError(err).Warn("TUN read failed, no more kernel output")
			}
			return
		}
	}
}

// Name is the kernel's name for the interface.
func (s *Stack) Name() string {
	return s.name
}

// Init applies the current addressing to the interface and forgets any
// packets still queued from before.
func (s *Stack) Init() {
drain:
	for {
		select {
		case <-s.recv:
		default:
			break drain
		}
	}
	if err := s.link.configure(s.name, s.host, s.mask, s.config.MTU); err != nil {
		s.logger.WithError(err).Warn("Failed to configure interface")
	}
}

// Input hands an inbound packet to the kernel. If the kernel already has
// something queued for the mesh, it is left in buf as the reply.
func (s *Stack) Input(buf *types.Buffer) {
	frame := buf.Bytes()
	buf.Reset()
	if len(frame) > s.config.LinkHeaderLen {
		pkt := frame[s.config.LinkHeaderLen:]
		out := make([]byte, tunOffsetBytes+len(pkt))
		copy(out[tunOffsetBytes:], pkt)
		if _, err := s.dev.Write([][]byte{out}, tunOffsetBytes); err != nil {
			s.logger.WithError(err).Debug("TUN write failed")
		}
	}
	s.pop(buf)
}

// Periodic forwards at most one queued kernel packet per slot.
func (s *Stack) Periodic(buf *types.Buffer, conn int) {
	buf.Reset()
	s.pop(buf)
}

func (s *Stack) pop(buf *types.Buffer) {
	select {
	case pkt := <-s.recv:
		off := s.config.LinkHeaderLen
		if off+len(pkt) > buf.Cap() {
			s.logger.WithField("len", len(pkt)).Debug("Kernel packet larger than buffer")
			return
		}
		data := buf.Data()
		clear(data[:off])
		copy(data[off:], pkt)
		buf.SetLen(off + len(pkt))
	default:
	}
}

func (s *Stack) UDPPeriodic(buf *types.Buffer, conn int) types.UDPConn {
	buf.Reset()
	return types.UDPConn{}
}

func (s *Stack) Conns() int {
	return s.config.Slots
}

func (s *Stack) UDPConns() int {
	return 0
}

func (s *Stack) SetHostAddr(a types.Addr) {
	s.host = a
}

// SetDefaultRouter only records the router; the host's routing table is left alone.
func (s *Stack) SetDefaultRouter(a types.Addr) {
	s.router = a
}

func (s *Stack) SetNetmask(a types.Addr) {
	s.mask = a
}

func (s *Stack) HostAddr() types.Addr {
	return s.host
}

func (s *Stack) DefaultRouter() types.Addr {
	return s.router
}

func (s *Stack) Netmask() types.Addr {
	return s.mask
}

// Listen records a port applications are expected to serve on. Kernel
// sockets do the actual listening.
func (s *Stack) Listen(port uint16) {
	s.listening[port] = struct{}{}
	s.logger.WithField("port", port).Debug("Listening")
}

func (s *Stack) Listening() []uint16 {
	ports := make([]uint16, 0, len(s.listening))
	for port := range s.listening {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

func (s *Stack) Close() error {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	select {
	case <-s.closed:
		return errors.New("closed")
	default:
	}
	close(s.closed)
	return s.dev.Close()
}
