package bridge

import (
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

const (
	timerDivisor   = 16
	defaultChannel = 97
	// Large enough for a full Ethernet frame.
	defaultBufferSize = 1514
)

type config struct {
	link             LinkStrategy
	clock            clock.Clock
	logger           logrus.Ext1FieldLogger
	periodicInterval time.Duration
	arpInterval      time.Duration
	bufferSize       int
	defaultChannel   uint8
}

type Option func(*config)

func configDefaults() Option {
	return func(c *config) {
		c.link = MeshRouted()
		c.clock = clock.New()
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		c.logger = logger
		c.periodicInterval = time.Second / timerDivisor
		c.arpInterval = 2 * time.Second
		c.bufferSize = defaultBufferSize
		c.defaultChannel = defaultChannel
	}
}

// WithLinkStrategy selects how frames are addressed on the mesh.
// The default is MeshRouted().
func WithLinkStrategy(link LinkStrategy) Option {
	return func(c *config) {
		c.link = link
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

func WithLogger(logger logrus.Ext1FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithPeriodicInterval sets how often the stack's connection housekeeping runs.
func WithPeriodicInterval(interval time.Duration) Option {
	return func(c *config) {
		c.periodicInterval = interval
	}
}

// WithARPInterval sets how often the ARP cache is aged in Tap mode.
func WithARPInterval(interval time.Duration) Option {
	return func(c *config) {
		c.arpInterval = interval
	}
}

func WithBufferSize(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// WithDefaultChannel sets the radio channel used by SetMac when SetChannel was never called.
func WithDefaultChannel(channel uint8) Option {
	return func(c *config) {
		c.defaultChannel = channel
	}
}
