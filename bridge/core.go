// Package bridge connects an IP protocol stack to a packet radio mesh.
//
// A Bridge is driven by calling Tick over and over from a single goroutine.
// Each call moves at most one inbound frame into the stack, runs whatever
// housekeeping is due, and forwards anything the stack wants to send.
package bridge

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/Arceliar/meshbridge/types"
)

type interfaceConfig struct {
	local   types.Addr
	gateway types.Addr
	subnet  types.Addr
	dns     types.Addr
}

// Bridge is not safe for concurrent use. Use a Runner to share one between goroutines.
type Bridge struct {
	config     config
	stack      types.Stack
	transport  types.Transport
	link       LinkStrategy
	logger     logrus.Ext1FieldLogger
	buf        *types.Buffer // pending output, and the input frame while it is processed
	iface      interfaceConfig
	periodic   timer
	aging      timer
	configured bool
	channel    uint8
	mac        net.HardwareAddr
	gateway    gateway
}

func New(stack types.Stack, transport types.Transport, opts ...Option) *Bridge {
	b := new(Bridge)
	configDefaults()(&b.config)
	for _, opt := range opts {
		opt(&b.config)
	}
	b.stack = stack
	b.transport = transport
	b.link = b.config.link
	b.logger = b.config.logger
	b.buf = types.NewBuffer(b.config.bufferSize)
	b.gateway.init(b)
	return b
}

// Mode reports which link strategy the bridge was built with.
func (b *Bridge) Mode() Mode {
	return b.link.Mode()
}

// Debug returns the diagnostics view of the bridge.
func (b *Bridge) Debug() *Debug {
	d := new(Debug)
	d.init(b)
	return d
}
