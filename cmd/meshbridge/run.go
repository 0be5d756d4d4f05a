package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/Arceliar/meshbridge/arp"
	"github.com/Arceliar/meshbridge/bridge"
	"github.com/Arceliar/meshbridge/hoststack"
	"github.com/Arceliar/meshbridge/radio"
	"github.com/Arceliar/meshbridge/types"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge until interrupted",
		Long: `
Run the bridge in the foreground.

Examples:
  meshbridge run --ip 10.10.2.4                          # mesh leaf, gateway and dns at 10.10.2.1
  meshbridge run --ip 10.10.2.2 --master                 # mesh master
  meshbridge run --mode tap --ip 10.10.3.7 --node 3      # ethernet over the mesh
  meshbridge run -c meshbridge.yaml --log-level debug
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			logger, err := newLogger(s.LogLevel, s.LogFormat)
			if err != nil {
				return err
			}
			return run(s, logger)
		},
	}
	radioDefaults := radio.DefaultConfig()
	stackDefaults := hoststack.DefaultConfig()
	flags := cmd.Flags()
	flags.String("mode", bridge.ModeMeshRouted.String(), "link strategy (mesh or tap)")
	flags.String("ip", "", "local IPv4 address")
	flags.String("dns", "", "dns server (default: .1 of ip)")
	flags.String("gateway", "", "default gateway (default: .1 of ip)")
	flags.String("subnet", "", "subnet mask (default: 255.255.255.0)")
	flags.Uint16("node", 1, "radio address; also selects the MAC")
	flags.Uint8("channel", 97, "radio channel")
	flags.Bool("master", false, "act as the mesh master (address 00)")
	flags.String("tun", stackDefaults.Name, "TUN interface name")
	flags.Int("mtu", stackDefaults.MTU, "TUN interface MTU")
	flags.String("group", radioDefaults.Group, "multicast group standing in for the air")
	flags.String("iface", "", "interface to join the multicast group on")
	flags.Duration("interval", time.Millisecond, "time between bridge ticks")
	flags.IntSlice("listen", nil, "ports to listen on")
	return cmd
}

func run(s *settings, logger *logrus.Logger) (err error) {
	rcfg := radio.DefaultConfig()
	rcfg.Group = s.Group
	rcfg.Interface = s.Iface
	rcfg.Master = s.Master
	rad, err := radio.Open(rcfg, logger.WithField("component", "radio"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rad.Close()) }()

	scfg := hoststack.DefaultConfig()
	scfg.Name = s.TUN
	scfg.MTU = s.MTU
	if s.mode == bridge.ModeEthernetTap {
		scfg.LinkHeaderLen = types.LinkHeaderLen
	}
	stack, err := hoststack.Open(scfg, logger.WithField("component", "stack"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, stack.Close()) }()

	opts := []bridge.Option{
		bridge.WithLogger(logger.WithField("component", "bridge")),
		bridge.WithDefaultChannel(s.Channel),
		bridge.WithBufferSize(scfg.LinkHeaderLen + scfg.MTU),
	}
	if s.mode == bridge.ModeEthernetTap {
		table := arp.New(stack, arp.WithLogger(logger.WithField("component", "arp")))
		opts = append(opts, bridge.WithLinkStrategy(bridge.EthernetTap(table)))
	}
	b := bridge.New(stack, rad, opts...)
	b.SetMac(s.Node)
	b.BeginWithSubnet(s.ip, s.dns, s.gateway, s.subnet)
	for _, port := range s.ports {
		b.Listen(port)
	}
	self := b.Debug().GetSelf()
	logger.WithFields(logrus.Fields{
		"mode":    self.Mode,
		"ip":      self.LocalIP,
		"mac":     self.MAC,
		"channel": self.Channel,
		"tun":     stack.Name(),
		"address": rad.Address(),
	}).Info("Bridge started")

	runner := bridge.NewRunner(b, s.Interval)
	runner.Start()
	defer runner.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.WithField("signal", sig).Info("Shutting down")
	return nil
}
