//go:build !linux

package main

import (
	"log/slog"

	"github.com/araneid-sim/araneid/internal/errx"
)

type tapSet struct{}

// attachTaps only exists on Linux; elsewhere a topology that names TAP
// devices is a configuration error.
func attachTaps(sim *simulation, logger *slog.Logger) (*tapSet, error) {
	for _, h := range sim.hosts {
		if h.spec.Tap != "" {
			return nil, errx.With(ErrTapUnsupported, ": host %q", h.spec.Name)
		}
	}
	return &tapSet{}, nil
}

func (s *tapSet) stop() {}
