package arp

import (
	"io"

	"github.com/sirupsen/logrus"
)

type config struct {
	size   int
	maxAge uint8
	logger logrus.FieldLogger
}

type Option func(*config)

func configDefaults() Option {
	return func(c *config) {
		c.size = 8
		c.maxAge = 120 // ticks
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		c.logger = logger
	}
}

// WithSize sets how many addresses the table remembers.
func WithSize(size int) Option {
	return func(c *config) {
		c.size = size
	}
}

// WithMaxAge sets how many Ticks an entry survives without being refreshed.
func WithMaxAge(ticks uint8) Option {
	return func(c *config) {
		c.maxAge = ticks
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
