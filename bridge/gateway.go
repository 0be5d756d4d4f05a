package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/Arceliar/meshbridge/types"
)

// gateway writes stack output onto the mesh. Output is always cleared after
// a write attempt, so a frame the radio rejected is lost rather than sent twice.
type gateway struct {
	bridge *Bridge
}

func (g *gateway) init(b *Bridge) {
	g.bridge = b
}

func (g *gateway) send(buf *types.Buffer) bool {
	return g.write(buf, g.bridge.logger)
}

// sendUDP skips link resolution; the connection already knows its peer.
func (g *gateway) sendUDP(conn types.UDPConn, buf *types.Buffer) bool {
	return g.write(buf, g.bridge.logger.WithFields(logrus.Fields{
		"peer":   conn.RemoteAddr,
		"rport":  conn.RemotePort,
		"lport":  conn.LocalPort,
		"origin": "udp",
	}))
}

func (g *gateway) write(buf *types.Buffer, logger logrus.Ext1FieldLogger) bool {
	if buf.Len() == 0 {
		return false
	}
	defer buf.Reset()
	h := types.Header{To: types.MasterAddress, Type: types.ExternalData}
	ok := g.bridge.transport.Write(h, buf.Bytes())
	if !ok {
		logger.WithField("len", buf.Len()).Debug("Network write failed")
	} else {
		logger.WithField("len", buf.Len()).Trace("Network write ok")
	}
	return ok
}
