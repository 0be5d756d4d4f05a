package radio

// Config describes the shared medium and this node's place on it.
type Config struct {
	Group      string // multicast host:port standing in for the air
	Interface  string // interface to join the group on; empty lets the kernel choose
	Master     bool   // the master always has address 00 and routes for the mesh
	MaxPayload int    // largest frame payload the radio accepts
	RecvQueue  int    // datagrams buffered between Polls; extra ones are dropped
}

func DefaultConfig() Config {
	return Config{
		Group:      "239.24.0.1:24024",
		MaxPayload: 1514,
		RecvQueue:  32,
	}
}
