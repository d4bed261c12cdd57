//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/araneid-sim/araneid/pkg/bridge"
	"github.com/araneid-sim/araneid/pkg/chunk"
	"github.com/araneid-sim/araneid/pkg/tap"
)

// tapSet tracks the open TAP fds and their readers so run can tear them
// down after the simulation ends.
type tapSet struct {
	files   []*os.File
	readers []*bridge.FdReader
}

// attachTaps couples every host that names a TAP device to the emulation:
// frames read from the fd enter via the host's device, and arrivals are
// written back out. Hosts without a tap entry stay simulation-only.
func attachTaps(sim *simulation, logger *slog.Logger) (*tapSet, error) {
	set := &tapSet{}
	for name, h := range sim.hosts {
		if h.spec.Tap == "" {
			continue
		}

		file, err := tap.Open(h.spec.Tap)
		if err != nil {
			set.stop()
			return nil, err
		}
		set.files = append(set.files, file)

		if err := tap.SetPromiscUp(h.spec.Tap); err != nil {
			set.stop()
			return nil, err
		}

		br := bridge.NewTapBridge(h.dev, file, chunk.Default, logger)
		h.dev.SetBridge(br)

		reader := bridge.NewFdReader(file, br, logger)
		reader.Start()
		set.readers = append(set.readers, reader)

		logger.Info("attached tap", "host", name, "tap", h.spec.Tap)
	}
	return set, nil
}

func (s *tapSet) stop() {
	for _, r := range s.readers {
		r.Stop()
	}
	for _, f := range s.files {
		f.Close()
	}
}
