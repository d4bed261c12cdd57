package main

import (
	"log/slog"
	"net/netip"

	"github.com/spf13/viper"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/device"
	"github.com/araneid-sim/araneid/pkg/scheduler"
	"github.com/araneid-sim/araneid/pkg/transmission"
	"github.com/araneid-sim/araneid/pkg/units"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

// hostSpec is one emulated host in a topology file.
type hostSpec struct {
	Name string `mapstructure:"name"`
	IP   string `mapstructure:"ip"`
	Tap  string `mapstructure:"tap"`
}

// linkSpec is one directed (or, with bidirectional, paired) channel.
type linkSpec struct {
	From          string  `mapstructure:"from"`
	To            string  `mapstructure:"to"`
	Delay         string  `mapstructure:"delay"`
	Bandwidth     string  `mapstructure:"bandwidth"`
	Buffer        string  `mapstructure:"buffer"`
	Loss          float64 `mapstructure:"loss"`
	Bidirectional bool    `mapstructure:"bidirectional"`
}

type topologySpec struct {
	Duration string     `mapstructure:"duration"`
	Hosts    []hostSpec `mapstructure:"hosts"`
	Links    []linkSpec `mapstructure:"links"`
}

// loadTopology reads and validates a topology file (YAML, JSON, or TOML,
// by extension). All parse failures are configuration errors: the caller
// escalates them fatally.
func loadTopology(path string) (*topologySpec, vtime.TimeDelta, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, vtime.Zero, errx.Wrap(ErrLoadTopology, err)
	}

	var topo topologySpec
	if err := v.Unmarshal(&topo); err != nil {
		return nil, vtime.Zero, errx.Wrap(ErrLoadTopology, err)
	}

	duration, err := validateTopology(&topo)
	if err != nil {
		return nil, vtime.Zero, err
	}
	return &topo, duration, nil
}

func validateTopology(topo *topologySpec) (vtime.TimeDelta, error) {
	if topo.Duration == "" {
		return vtime.Zero, errx.With(ErrInvalidTopology, ": missing duration")
	}
	duration, err := vtime.ParseTimeDelta(topo.Duration)
	if err != nil {
		return vtime.Zero, errx.With(ErrInvalidTopology, ": duration: %w", err)
	}

	if len(topo.Hosts) == 0 {
		return vtime.Zero, errx.With(ErrInvalidTopology, ": no hosts")
	}
	seen := make(map[string]bool, len(topo.Hosts))
	for _, h := range topo.Hosts {
		if h.Name == "" {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": host with empty name")
		}
		if seen[h.Name] {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": duplicate host %q", h.Name)
		}
		seen[h.Name] = true
		if _, err := netip.ParseAddr(h.IP); err != nil {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": host %q ip: %w", h.Name, err)
		}
	}

	for i, l := range topo.Links {
		if !seen[l.From] {
			return vtime.Zero, errx.With(ErrUnknownHost, ": link %d from %q", i, l.From)
		}
		if !seen[l.To] {
			return vtime.Zero, errx.With(ErrUnknownHost, ": link %d to %q", i, l.To)
		}
		if _, err := vtime.ParseTimeDelta(l.Delay); err != nil {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": link %d delay: %w", i, err)
		}
		if _, err := units.ParseDataRate(l.Bandwidth); err != nil {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": link %d bandwidth: %w", i, err)
		}
		if _, err := units.ParseDataSize(l.Buffer); err != nil {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": link %d buffer: %w", i, err)
		}
		if l.Loss < 0 || l.Loss > 1 {
			return vtime.Zero, errx.With(ErrInvalidTopology, ": link %d loss %f outside [0,1]", i, l.Loss)
		}
	}
	return duration, nil
}

// simHost pairs a host's spec with its built device.
type simHost struct {
	spec hostSpec
	addr netip.Addr
	dev  *device.CommonDevice
}

// simLink pairs a built transmission with the endpoints it connects, for
// stats reporting.
type simLink struct {
	from, to string
	tx       *transmission.Transmission
}

type simulation struct {
	hosts map[string]*simHost
	links []simLink
}

// buildSimulation turns a validated topology into live devices and
// transmissions on sched. A non-nil recorder traces every channel.
func buildSimulation(topo *topologySpec, sched *scheduler.Scheduler, rec transmission.Recorder, logger *slog.Logger) (*simulation, error) {
	sim := &simulation{hosts: make(map[string]*simHost, len(topo.Hosts))}

	for _, h := range topo.Hosts {
		addr, err := netip.ParseAddr(h.IP)
		if err != nil {
			return nil, errx.With(ErrInvalidTopology, ": host %q ip: %w", h.Name, err)
		}
		sim.hosts[h.Name] = &simHost{spec: h, addr: addr, dev: device.New(logger)}
	}

	for _, l := range topo.Links {
		if err := sim.addDirectedLink(sched, rec, logger, l, l.From, l.To); err != nil {
			return nil, err
		}
		if l.Bidirectional {
			if err := sim.addDirectedLink(sched, rec, logger, l, l.To, l.From); err != nil {
				return nil, err
			}
		}
	}
	return sim, nil
}

func (sim *simulation) addDirectedLink(sched *scheduler.Scheduler, rec transmission.Recorder, logger *slog.Logger, l linkSpec, from, to string) error {
	delay, _ := vtime.ParseTimeDelta(l.Delay)
	bandwidth, _ := units.ParseDataRate(l.Bandwidth)
	buffer, _ := units.ParseDataSize(l.Buffer)

	var loss transmission.PacketLoss
	if l.Loss > 0 {
		random, err := transmission.NewRandomPacketLoss(l.Loss)
		if err != nil {
			return err
		}
		loss = random
	}

	tx := transmission.New(sched, transmission.Config{
		Loss:           loss,
		Delay:          delay,
		Bandwidth:      bandwidth,
		BufferCapacity: buffer,
		Logger:         logger,
		Recorder:       rec,
	})

	src, dst := sim.hosts[from], sim.hosts[to]
	tx.SetReceiver(dst.dev)
	src.dev.AddTransmission(dst.addr, tx)
	sim.links = append(sim.links, simLink{from: from, to: to, tx: tx})
	return nil
}
