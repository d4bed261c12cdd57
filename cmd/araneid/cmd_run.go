package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/araneid-sim/araneid/pkg/capture"
	"github.com/araneid-sim/araneid/pkg/logsetup"
	"github.com/araneid-sim/araneid/pkg/provision"
	"github.com/araneid-sim/araneid/pkg/scheduler"
	"github.com/araneid-sim/araneid/pkg/state"
	"github.com/araneid-sim/araneid/pkg/transmission"
	"github.com/araneid-sim/araneid/pkg/vtime"
	"github.com/araneid-sim/araneid/pkg/worker"
)

var runCmd = &cobra.Command{
	Use:   "run -f <topology>",
	Short: "Run an emulation from a topology file",
	Long: `Run an emulation from a topology file.

The topology names the emulated hosts, their addresses, and the links
between them (delay, bandwidth, buffer, loss). Hosts with a "tap" entry
are coupled to a host TAP device so real traffic crosses the emulated
channel; hosts without one exist purely inside the simulation.`,
	Example: `  araneid run -f topology.yaml
  araneid run -f topology.yaml --capture trace.cbor
  araneid run -f topology.yaml --duration 30s
  sudo araneid run -f topology.yaml --provision`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("topology", "f", "", "Topology file (required)")
	runCmd.Flags().String("duration", "", "Override the topology's duration")
	runCmd.Flags().String("capture", "", "Write a packet trace to this file")
	runCmd.Flags().Int("workers", 0, "Worker pool size (default: hardware parallelism, max 4)")
	runCmd.Flags().Bool("provision", false, "Provision bridges, taps, NAT, and containers for hosts (requires privileges)")
	runCmd.MarkFlagRequired("topology")

	viper.BindPFlag("run.topology", runCmd.Flags().Lookup("topology"))
	viper.BindPFlag("run.duration", runCmd.Flags().Lookup("duration"))
	viper.BindPFlag("run.capture", runCmd.Flags().Lookup("capture"))
	viper.BindPFlag("run.workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("run.provision", runCmd.Flags().Lookup("provision"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	outDir := viper.GetString("out")
	logger, logFile, err := logsetup.Init(outDir, logLevel())
	if err != nil {
		return err
	}
	defer logFile.Close()

	topo, duration, err := loadTopology(viper.GetString("run.topology"))
	if err != nil {
		return err
	}
	if override := viper.GetString("run.duration"); override != "" {
		duration, err = vtime.ParseTimeDelta(override)
		if err != nil {
			return err
		}
	}

	var recorder transmission.Recorder
	if path := viper.GetString("run.capture"); path != "" {
		w, err := capture.NewWriter(path)
		if err != nil {
			return err
		}
		defer w.Close()
		recorder = w
	}

	pool := worker.New(viper.GetInt("run.workers"))
	defer pool.Stop()
	sched := scheduler.Init(pool)

	sim, err := buildSimulation(topo, sched, recorder, logger)
	if err != nil {
		return err
	}

	runID := uuid.New().String()[:8]
	if viper.GetBool("run.provision") {
		cleanup, err := provisionHosts(runID, outDir, topo, logger)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	taps, err := attachTaps(sim, logger)
	if err != nil {
		return err
	}
	defer taps.stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting simulation", "run_id", runID, "duration", duration, "hosts", len(sim.hosts), "links", len(sim.links))
	if err := sched.Start(duration); err != nil {
		return err
	}
	defer sched.Stop()

	// A live stats line is only worth repainting on a terminal; detached
	// runs get the log file instead.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		sched.ScheduleEvery(vtime.Seconds(1), vtime.Seconds(1), func() { printQueueStats(sim) })
	}

	select {
	case <-sched.Done():
		logger.Info("simulation finished", "run_id", runID)
	case <-ctx.Done():
		logger.Info("interrupted, stopping simulation", "run_id", runID)
		sched.Stop()
	}
	return nil
}

func printQueueStats(sim *simulation) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	line := ""
	for _, l := range sim.links {
		line += fmt.Sprintf("%s->%s %s  ", l.from, l.to, l.tx.QueuedBytes())
	}
	if len(line) > width {
		line = line[:width]
	}
	fmt.Printf("\r%-*s", width, line)
}

// provisionHosts builds the physical footprint for every host: bridge,
// TAP, NAT, a subnet allocation, and an LXC container wired into that
// subnet. The returned cleanup tears it all down in reverse.
func provisionHosts(runID, outDir string, topo *topologySpec, logger *slog.Logger) (func(), error) {
	harness := provision.New(nil)
	allocator, err := state.NewSubnetAllocator(filepath.Join(outDir, "state.db"))
	if err != nil {
		return nil, err
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		allocator.Close()
	}

	for _, h := range topo.Hosts {
		host := h
		hostID := runID + "-" + host.Name

		subnet, err := allocator.Allocate(hostID)
		if err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := allocator.Release(hostID); err != nil {
				logger.Error("release subnet failed", "host", host.Name, "error", err)
			}
		})

		if err := harness.CreateBridge(host.Name); err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := harness.DeleteLink(provision.BridgeName(host.Name)); err != nil {
				logger.Error("delete bridge failed", "host", host.Name, "error", err)
			}
		})

		if err := harness.CreateTapAndAttach(host.Name); err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := harness.DeleteLink(provision.TapName(host.Name)); err != nil {
				logger.Error("delete tap failed", "host", host.Name, "error", err)
			}
		})

		nat := provision.NewHostNAT(provision.BridgeName(host.Name))
		if err := nat.Setup(); err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := nat.Cleanup(); err != nil {
				logger.Error("cleanup nat failed", "host", host.Name, "error", err)
			}
		})

		config := map[string]string{
			"lxc.net.0.type":         "veth",
			"lxc.net.0.link":         provision.BridgeName(host.Name),
			"lxc.net.0.ipv4.address": subnet.GuestIP + "/24",
			"lxc.net.0.ipv4.gateway": subnet.GatewayIP,
		}
		if err := harness.CreateContainer(hostID, "", nil, config); err != nil {
			cleanup()
			return nil, err
		}
		if err := harness.StartContainer(hostID); err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := harness.StopContainer(hostID); err != nil {
				logger.Error("stop container failed", "host", host.Name, "error", err)
			}
			if err := harness.DestroyContainer(hostID); err != nil {
				logger.Error("destroy container failed", "host", host.Name, "error", err)
			}
		})

		logger.Info("provisioned host", "host", host.Name, "subnet", subnet.Subnet, "guest_ip", subnet.GuestIP)
	}
	return cleanup, nil
}
