package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Arceliar/meshbridge/bridge"
	"github.com/Arceliar/meshbridge/types"
)

type options struct {
	Mode      string        `mapstructure:"mode"`
	IP        string        `mapstructure:"ip"`
	DNS       string        `mapstructure:"dns"`
	Gateway   string        `mapstructure:"gateway"`
	Subnet    string        `mapstructure:"subnet"`
	Node      uint16        `mapstructure:"node"`
	Channel   uint8         `mapstructure:"channel"`
	Master    bool          `mapstructure:"master"`
	TUN       string        `mapstructure:"tun"`
	MTU       int           `mapstructure:"mtu"`
	Group     string        `mapstructure:"group"`
	Iface     string        `mapstructure:"iface"`
	Interval  time.Duration `mapstructure:"interval"`
	Listen    []int         `mapstructure:"listen"`
	LogLevel  string        `mapstructure:"log-level"`
	LogFormat string        `mapstructure:"log-format"`
}

// settings is options after parsing and validation.
type settings struct {
	options
	mode    bridge.Mode
	ip      types.Addr
	dns     types.Addr
	gateway types.Addr
	subnet  types.Addr
	ports   []uint16
}

func loadSettings(v *viper.Viper) (*settings, error) {
	var s settings
	if err := v.Unmarshal(&s.options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	switch s.Mode {
	case bridge.ModeMeshRouted.String():
		s.mode = bridge.ModeMeshRouted
	case bridge.ModeEthernetTap.String():
		s.mode = bridge.ModeEthernetTap
	default:
		return nil, fmt.Errorf("unknown mode %q", s.Mode)
	}
	var err error
	if s.ip, err = types.ParseAddr(s.IP); err != nil {
		return nil, fmt.Errorf("ip: %w", err)
	}
	// Unset addresses fall back to the defaults derived from ip.
	s.dns = s.ip.WithLast(1)
	s.gateway = s.ip.WithLast(1)
	s.subnet = types.DefaultSubnet
	for _, f := range []struct {
		name string
		in   string
		out  *types.Addr
	}{
		{"dns", s.DNS, &s.dns},
		{"gateway", s.Gateway, &s.gateway},
		{"subnet", s.Subnet, &s.subnet},
	} {
		if f.in == "" {
			continue
		}
		if *f.out, err = types.ParseAddr(f.in); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	for _, port := range s.Listen {
		if port <= 0 || port > 0xffff {
			return nil, fmt.Errorf("listen: port %d out of range", port)
		}
		s.ports = append(s.ports, uint16(port))
	}
	if s.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	return &s, nil
}
