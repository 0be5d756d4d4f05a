package bridge

import (
	"net"

	"github.com/Arceliar/meshbridge/types"
)

/*****************
 * dummyTransport *
 *****************/

type dummyWrite struct {
	header  types.Header
	payload []byte
}

type dummyTransport struct {
	inbox    []types.Frame
	writes   []dummyWrite
	failing  bool
	started  bool
	channel  uint8
	address  uint16
	nodeID   uint8
	relay    bool
	polls    int
	channels []uint8 // every SetChannel call
}

func (d *dummyTransport) push(kind types.FrameType, payload []byte) {
	d.inbox = append(d.inbox, types.Frame{
		Header:  types.Header{Type: kind},
		Payload: append([]byte(nil), payload...),
	})
}

func (d *dummyTransport) Poll() (types.Frame, bool) {
	d.polls++
	if len(d.inbox) == 0 {
		return types.Frame{}, false
	}
	f := d.inbox[0]
	d.inbox = d.inbox[1:]
	return f, true
}

func (d *dummyTransport) Write(h types.Header, payload []byte) bool {
	d.writes = append(d.writes, dummyWrite{h, append([]byte(nil), payload...)})
	return !d.failing
}

func (d *dummyTransport) Begin(channel uint8, address uint16) {
	d.started = true
	d.channel = channel
	d.address = address
}

func (d *dummyTransport) SetChannel(channel uint8) {
	d.channel = channel
	d.channels = append(d.channels, channel)
}

func (d *dummyTransport) Started() bool             { return d.started }
func (d *dummyTransport) SetNodeID(id uint8)        { d.nodeID = id }
func (d *dummyTransport) SetMulticastRelay(on bool) { d.relay = on }

/**************
 * dummyStack *
 **************/

type dummyStack struct {
	host, router, mask types.Addr
	conns, udpConns    int
	inits              int
	inputs             [][]byte
	periodics          []int
	udpPeriodics       []int
	listening          []uint16
	reply              []byte         // left in buf by Input
	periodicOut        map[int][]byte // left in buf by Periodic(idx)
	udpOut             map[int][]byte // left in buf by UDPPeriodic(idx)
}

func newDummyStack(conns, udpConns int) *dummyStack {
	return &dummyStack{
		conns:       conns,
		udpConns:    udpConns,
		periodicOut: make(map[int][]byte),
		udpOut:      make(map[int][]byte),
	}
}

func (s *dummyStack) Init() { s.inits++ }

func (s *dummyStack) Input(buf *types.Buffer) {
	s.inputs = append(s.inputs, append([]byte(nil), buf.Bytes()...))
	buf.Reset()
	if s.reply != nil {
		buf.Load(s.reply)
	}
}

func (s *dummyStack) Periodic(buf *types.Buffer, conn int) {
	s.periodics = append(s.periodics, conn)
	if out, ok := s.periodicOut[conn]; ok {
		buf.Load(out)
	}
}

func (s *dummyStack) UDPPeriodic(buf *types.Buffer, conn int) types.UDPConn {
	s.udpPeriodics = append(s.udpPeriodics, conn)
	if out, ok := s.udpOut[conn]; ok {
		buf.Load(out)
	}
	return types.UDPConn{RemoteAddr: types.AddrFrom4(10, 0, 0, 9), RemotePort: 53, LocalPort: 4000}
}

func (s *dummyStack) Conns() int                    { return s.conns }
func (s *dummyStack) UDPConns() int                 { return s.udpConns }
func (s *dummyStack) SetHostAddr(a types.Addr)      { s.host = a }
func (s *dummyStack) SetDefaultRouter(a types.Addr) { s.router = a }
func (s *dummyStack) SetNetmask(a types.Addr)       { s.mask = a }
func (s *dummyStack) HostAddr() types.Addr          { return s.host }
func (s *dummyStack) DefaultRouter() types.Addr     { return s.router }
func (s *dummyStack) Netmask() types.Addr           { return s.mask }
func (s *dummyStack) Listen(port uint16)            { s.listening = append(s.listening, port) }

/************
 * dummyARP *
 ************/

type dummyARP struct {
	inits  int
	ipins  int
	arpins int
	outs   int
	ticks  int
	mac    net.HardwareAddr
	reply  []byte // left in buf by ARPIn
}

func (a *dummyARP) Init()              { a.inits++ }
func (a *dummyARP) IPIn(*types.Buffer) { a.ipins++ }
func (a *dummyARP) Out(*types.Buffer)  { a.outs++ }
func (a *dummyARP) Tick()              { a.ticks++ }

func (a *dummyARP) ARPIn(buf *types.Buffer) {
	a.arpins++
	buf.Reset()
	if a.reply != nil {
		buf.Load(a.reply)
	}
}

func (a *dummyARP) SetLinkAddr(mac net.HardwareAddr) { a.mac = mac }

// ethFrame builds a minimal Ethernet frame with the given ethertype.
func ethFrame(ethertype uint16, payloadLen int) []byte {
	frame := make([]byte, types.LinkHeaderLen+payloadLen)
	for idx := 0; idx < 6; idx++ {
		frame[idx] = 0xff
	}
	copy(frame[6:12], []byte{0x52, 0x46, 0x32, 0x34, 0x02, 0x00})
	frame[12] = byte(ethertype >> 8)
	frame[13] = byte(ethertype)
	return frame
}
