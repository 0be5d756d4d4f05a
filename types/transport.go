package types

// FrameType is the type byte of a mesh frame header.
type FrameType uint8

const (
	// ExternalData marks a frame carrying an opaque IP stack payload.
	ExternalData FrameType = 131
)

// MasterAddress is the mesh node every node can reach; frames addressed to it
// are routed by the mesh.
const MasterAddress uint16 = 0

// Header is the addressing carried by every mesh frame.
type Header struct {
	From     uint16
	To       uint16
	ID       uint16
	Type     FrameType
	Reserved uint8
}

type Frame struct {
	Header  Header
	Payload []byte
}

// Transport is the mesh radio layer seen by the bridge.
// None of its methods may block.
type Transport interface {
	// Poll returns the next received frame, if any.
	// The payload is only valid until the next call to Poll.
	Poll() (Frame, bool)
	// Write sends one frame and reports whether the radio accepted it.
	// The payload must not be retained after Write returns.
	Write(h Header, payload []byte) bool
	// Begin starts the radio on a channel with the given node address.
	Begin(channel uint8, address uint16)
	SetChannel(channel uint8)
	Started() bool
	// SetNodeID sets the mesh identity used for address assignment.
	SetNodeID(id uint8)
}

// Relayer is implemented by transports that can repeat multicast frames to
// every node, as needed to emulate an Ethernet segment.
type Relayer interface {
	SetMulticastRelay(relay bool)
}
