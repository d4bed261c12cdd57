// Package device implements the per-host L3 endpoint: an address-keyed
// outgoing transmission map plus bridge ingress.
package device

import (
	"log/slog"
	"net/netip"
	"sync"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/packet"
	"github.com/araneid-sim/araneid/pkg/transmission"
)

// Bridge is the device's ingress path back to the host. pkg/bridge's
// TapBridge satisfies this without device importing bridge.
type Bridge interface {
	ForwardIn(p *packet.Packet) error
}

// Device is a host's view of the emulated network: where outgoing packets
// go, and how incoming ones reach the host.
type Device interface {
	Send(p *packet.Packet) error
	Receive(p *packet.Packet) error
	AddTransmission(dst netip.Addr, t *transmission.Transmission)
}

// CommonDevice is the standard Device implementation.
type CommonDevice struct {
	log *slog.Logger

	mu       sync.RWMutex
	outgoing map[netip.Addr]*transmission.Transmission

	bridgeMu sync.RWMutex
	bridge   Bridge
}

// New constructs an empty CommonDevice.
func New(logger *slog.Logger) *CommonDevice {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommonDevice{
		log:      logger.With("component", "device"),
		outgoing: make(map[netip.Addr]*transmission.Transmission),
	}
}

func (d *CommonDevice) AddTransmission(dst netip.Addr, t *transmission.Transmission) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outgoing[dst] = t
}

// SetBridge binds the device's ingress path.
func (d *CommonDevice) SetBridge(b Bridge) {
	d.bridgeMu.Lock()
	defer d.bridgeMu.Unlock()
	d.bridge = b
}

// Send looks up the destination's transmission and hands the packet off.
// A miss is a routing error: logged, packet dropped.
func (d *CommonDevice) Send(p *packet.Packet) error {
	if p == nil {
		return ErrNilPacket
	}
	d.mu.RLock()
	t, ok := d.outgoing[p.DstIPv4]
	d.mu.RUnlock()

	if !ok {
		d.log.Error("no outgoing transmission for destination", "dst", p.DstIPv4)
		return errx.With(ErrNoRoute, ": %s", p.DstIPv4)
	}
	t.SendToNetwork(p)
	return nil
}

// Receive is invoked by a Transmission when a packet arrives for this
// device; it forwards to the bound bridge. A nil bridge is a routing
// error.
func (d *CommonDevice) Receive(p *packet.Packet) error {
	if p == nil {
		return ErrNilPacket
	}
	d.bridgeMu.RLock()
	b := d.bridge
	d.bridgeMu.RUnlock()

	if b == nil {
		d.log.Error("no bridge to forward packet")
		return ErrNoBridge
	}
	return b.ForwardIn(p)
}

var _ Device = (*CommonDevice)(nil)
