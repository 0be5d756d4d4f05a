package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arceliar/meshbridge/types"
)

func TestTickBeforeConfigure(t *testing.T) {
	stack := newDummyStack(2, 2)
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr)
	tr.push(types.ExternalData, []byte{0x45})
	clk.Add(time.Second)
	b.Tick()
	assert.Zero(t, tr.polls)
	assert.Empty(t, stack.inputs)
	assert.Empty(t, stack.udpPeriodics)
}

func TestInboundFeedsStack(t *testing.T) {
	stack := newDummyStack(2, 0)
	stack.reply = []byte("pong")
	tr := new(dummyTransport)
	b, _ := newTestBridge(stack, tr)
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	tr.push(types.ExternalData, []byte("ping"))
	b.Tick()
	require.Len(t, stack.inputs, 1)
	assert.Equal(t, []byte("ping"), stack.inputs[0])
	require.Len(t, tr.writes, 1)
	assert.Equal(t, []byte("pong"), tr.writes[0].payload)
	assert.Equal(t, types.ExternalData, tr.writes[0].header.Type)
	assert.Equal(t, types.MasterAddress, tr.writes[0].header.To)
	assert.Zero(t, b.Debug().GetSelf().Pending)
}

func TestInboundTakesPriorityOverPeriodic(t *testing.T) {
	stack := newDummyStack(3, 2)
	arp := new(dummyARP)
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr, WithLinkStrategy(EthernetTap(arp)))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	clk.Add(5 * time.Second) // both timers expired
	tr.push(types.ExternalData, ethFrame(0x0800, 20))
	b.Tick()
	assert.Len(t, stack.inputs, 1)
	assert.Empty(t, stack.periodics, "periodic sweep must wait for a cycle without input")
	assert.Equal(t, []int{0, 1}, stack.udpPeriodics)
	assert.Equal(t, 1, arp.ticks)

	b.Tick()
	assert.Equal(t, []int{0, 1, 2}, stack.periodics)
	assert.Equal(t, []int{0, 1, 0, 1}, stack.udpPeriodics)
}

func TestNonDataFramesDoNotBlockPeriodic(t *testing.T) {
	stack := newDummyStack(1, 0)
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr)
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	clk.Add(time.Second)
	tr.push(types.FrameType(1), []byte("routing chatter"))
	b.Tick()
	assert.Empty(t, stack.inputs)
	assert.Equal(t, []int{0}, stack.periodics)
}

func TestOversizedFrameDropped(t *testing.T) {
	stack := newDummyStack(1, 0)
	tr := new(dummyTransport)
	b, _ := newTestBridge(stack, tr, WithBufferSize(8))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	tr.push(types.ExternalData, make([]byte, 9))
	b.Tick()
	assert.Empty(t, stack.inputs)
}

func TestPeriodicSweepForwardsEachSlot(t *testing.T) {
	stack := newDummyStack(4, 0)
	stack.periodicOut[1] = []byte("retransmit")
	stack.periodicOut[3] = []byte("ack")
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr)
	b.Begin(types.AddrFrom4(10, 0, 0, 2))

	b.Tick()
	assert.Empty(t, stack.periodics, "timer not expired yet")

	clk.Add(b.config.periodicInterval)
	b.Tick()
	assert.Equal(t, []int{0, 1, 2, 3}, stack.periodics)
	require.Len(t, tr.writes, 2)
	assert.Equal(t, []byte("retransmit"), tr.writes[0].payload)
	assert.Equal(t, []byte("ack"), tr.writes[1].payload)

	b.Tick()
	assert.Len(t, stack.periodics, 4, "timer was reset")
}

func TestPeriodicTimerDoesNotDrift(t *testing.T) {
	stack := newDummyStack(1, 0)
	b, clk := newTestBridge(stack, new(dummyTransport))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	interval := b.config.periodicInterval

	// Three intervals pass without a Tick; each following Tick catches up one.
	clk.Add(3 * interval)
	for idx := 0; idx < 5; idx++ {
		b.Tick()
	}
	assert.Len(t, stack.periodics, 3)

	clk.Add(interval)
	b.Tick()
	assert.Len(t, stack.periodics, 4)
}

func TestUDPSweepEveryCycle(t *testing.T) {
	stack := newDummyStack(1, 3)
	stack.udpOut[2] = []byte("dns query")
	tr := new(dummyTransport)
	b, _ := newTestBridge(stack, tr)
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	b.Tick()
	b.Tick()
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, stack.udpPeriodics)
	require.Len(t, tr.writes, 2)
	assert.Equal(t, []byte("dns query"), tr.writes[1].payload)
}

func TestUDPOutputSkipsResolution(t *testing.T) {
	stack := newDummyStack(1, 1)
	stack.udpOut[0] = ethFrame(0x0800, 28)
	stack.periodicOut[0] = ethFrame(0x0800, 40)
	arp := new(dummyARP)
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr, WithLinkStrategy(EthernetTap(arp)))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))

	b.Tick()
	require.Len(t, tr.writes, 1)
	assert.Zero(t, arp.outs, "UDP output must not go through ARP")

	clk.Add(b.config.periodicInterval)
	b.Tick()
	require.Len(t, tr.writes, 3)
	assert.Equal(t, 1, arp.outs, "only the TCP slot output is resolved")
}

func TestTapARPNeverReachesStack(t *testing.T) {
	stack := newDummyStack(1, 0)
	arp := new(dummyARP)
	arp.reply = ethFrame(0x0806, 28)
	tr := new(dummyTransport)
	b, _ := newTestBridge(stack, tr, WithLinkStrategy(EthernetTap(arp)))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))

	tr.push(types.ExternalData, ethFrame(0x0806, 28))
	b.Tick()
	assert.Empty(t, stack.inputs)
	assert.Equal(t, 1, arp.arpins)
	assert.Zero(t, arp.ipins)
	assert.Zero(t, arp.outs, "an ARP reply is already framed")
	require.Len(t, tr.writes, 1)
	assert.Equal(t, arp.reply, tr.writes[0].payload)
}

func TestTapIPNeverReachesARPIn(t *testing.T) {
	stack := newDummyStack(1, 0)
	stack.reply = ethFrame(0x0800, 20)
	arp := new(dummyARP)
	tr := new(dummyTransport)
	b, _ := newTestBridge(stack, tr, WithLinkStrategy(EthernetTap(arp)))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))

	tr.push(types.ExternalData, ethFrame(0x0800, 20))
	b.Tick()
	assert.Len(t, stack.inputs, 1)
	assert.Equal(t, 1, arp.ipins)
	assert.Zero(t, arp.arpins)
	assert.Equal(t, 1, arp.outs)
	assert.Len(t, tr.writes, 1)
}

func TestTapOtherEthertypeDropped(t *testing.T) {
	stack := newDummyStack(1, 0)
	arp := new(dummyARP)
	tr := new(dummyTransport)
	b, clk := newTestBridge(stack, tr, WithLinkStrategy(EthernetTap(arp)))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	clk.Add(time.Second)

	tr.push(types.ExternalData, ethFrame(0x86dd, 40)) // IPv6
	tr.push(types.ExternalData, []byte{0x01, 0x02})   // runt
	b.Tick()
	b.Tick()
	assert.Empty(t, stack.inputs)
	assert.Zero(t, arp.ipins+arp.arpins)
	assert.Empty(t, stack.periodics, "a dropped data frame still counts as input")
	assert.Empty(t, tr.writes)
}

func TestFailedWriteIsNotRepeated(t *testing.T) {
	stack := newDummyStack(1, 0)
	stack.reply = []byte("reply")
	tr := &dummyTransport{failing: true}
	b, _ := newTestBridge(stack, tr)
	b.Begin(types.AddrFrom4(10, 0, 0, 2))

	tr.push(types.ExternalData, []byte("request"))
	b.Tick()
	require.Len(t, tr.writes, 1)
	assert.Zero(t, b.Debug().GetSelf().Pending)

	for idx := 0; idx < 3; idx++ {
		b.Tick()
	}
	assert.Len(t, tr.writes, 1)
	assert.Len(t, stack.inputs, 1, "old output is never fed back as input")
}

func TestUpdateIsTick(t *testing.T) {
	stack := newDummyStack(1, 1)
	b, _ := newTestBridge(stack, new(dummyTransport))
	b.Begin(types.AddrFrom4(10, 0, 0, 2))
	b.Update()
	assert.Equal(t, []int{0}, stack.udpPeriodics)
}
