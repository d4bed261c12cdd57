//go:build !linux

package provision

import "github.com/araneid-sim/araneid/internal/errx"

// HostNAT is only implemented on Linux; other platforms get a stub that
// fails at Setup so the caller surfaces a configuration error instead of
// silently running without NAT.
type HostNAT struct {
	bridge string
}

func NewHostNAT(bridge string) *HostNAT { return &HostNAT{bridge: bridge} }

func (n *HostNAT) Setup() error {
	return errx.With(ErrSetupNAT, ": nftables NAT requires linux")
}

func (n *HostNAT) Cleanup() error { return nil }
