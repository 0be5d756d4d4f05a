package bridge

import (
	"github.com/Arceliar/meshbridge/types"
)

// Tick runs one dispatcher cycle. The caller must call it often enough to
// stay ahead of the stack's shortest protocol timeout; nothing here keeps
// time on its own. Rules, in order:
//
//  1. If the mesh delivered an external data frame, hand it to the stack.
//  2. Forward any output the stack produced in reply.
//  3. Otherwise, if the periodic timer expired, sweep every connection slot.
//  4. Sweep every UDP connection slot.
//  5. In Tap mode, age the ARP cache when its timer expires.
func (b *Bridge) Tick() {
	if !b.configured {
		b.logger.Debug("Tick called before Configure")
		return
	}
	if b.pollInbound() {
		b.handleInbound()
	} else if b.periodic.expired() {
		b.periodic.reset()
		b.sweep()
	}
	b.sweepUDP()
	if b.aging.expired() {
		b.aging.reset()
		b.link.Age()
	}
}

// Update is the same as Tick.
func (b *Bridge) Update() {
	b.Tick()
}

func (b *Bridge) pollInbound() bool {
	frame, ok := b.transport.Poll()
	if !ok || frame.Header.Type != types.ExternalData {
		return false
	}
	if !b.buf.Load(frame.Payload) {
		b.logger.WithField("len", len(frame.Payload)).Debug("Dropping oversized frame")
		return false
	}
	return true
}

func (b *Bridge) handleInbound() {
	switch b.link.Classify(b.buf.Bytes()) {
	case ClassIP:
		b.link.IPIn(b.buf)
		b.stack.Input(b.buf)
		if b.buf.Len() > 0 {
			b.link.Resolve(b.buf)
			b.gateway.send(b.buf)
		}
	case ClassARP:
		b.link.ARPIn(b.buf)
		if b.buf.Len() > 0 {
			b.gateway.send(b.buf)
		}
	default:
		b.buf.Reset()
	}
}

func (b *Bridge) sweep() {
	for idx := 0; idx < b.stack.Conns(); idx++ {
		b.stack.Periodic(b.buf, idx)
		if b.buf.Len() > 0 {
			b.link.Resolve(b.buf)
			b.gateway.send(b.buf)
		}
	}
}

func (b *Bridge) sweepUDP() {
	for idx := 0; idx < b.stack.UDPConns(); idx++ {
		conn := b.stack.UDPPeriodic(b.buf, idx)
		if b.buf.Len() > 0 {
			b.gateway.sendUDP(conn, b.buf)
		}
	}
}
