package hoststack

// Config describes the TUN interface the kernel stack is reached through.
type Config struct {
	Name string
	MTU  int
	// Slots is how many queued kernel packets one periodic sweep may forward.
	Slots int
	// LinkHeaderLen bytes are reserved in front of every packet handed to the
	// bridge, and stripped from every packet handed back. 14 in tap mode.
	LinkHeaderLen int
	// Queue is how many kernel packets may wait for the next sweep.
	Queue int
}

func DefaultConfig() Config {
	return Config{
		Name:  "mesh0",
		MTU:   1500,
		Slots: 8,
		Queue: 64,
	}
}
