// Package bridge couples a host TAP file descriptor to a simulated device:
// frames read from the fd enter the emulation as packets, and packets
// arriving from the emulation are written back out to the fd.
package bridge

import (
	"log/slog"
	"os"
	"sync"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/chunk"
	"github.com/araneid-sim/araneid/pkg/device"
	"github.com/araneid-sim/araneid/pkg/packet"
)

// frameBufSize bounds a single Ethernet frame read from or written to the
// kernel; 64 KiB covers any MTU the TAP device will carry.
const frameBufSize = 64 * 1024

// Bridge moves frames between the host kernel and the emulated network.
// ForwardOut carries host frames into the emulation; ForwardIn carries
// emulated arrivals back to the host.
type Bridge interface {
	ForwardOut(data []byte) error
	ForwardIn(p *packet.Packet) error
}

// TapBridge binds exactly one device to one TAP file descriptor.
type TapBridge struct {
	log  *slog.Logger
	dev  device.Device
	file *os.File
	pool *chunk.Pool

	writeMu sync.Mutex
	scratch []byte
}

// NewTapBridge wires dev to the TAP fd behind file. Packets constructed on
// the way in allocate from pool; nil uses the package default pool.
func NewTapBridge(dev device.Device, file *os.File, pool *chunk.Pool, logger *slog.Logger) *TapBridge {
	if logger == nil {
		logger = slog.Default()
	}
	if pool == nil {
		pool = chunk.Default
	}
	return &TapBridge{
		log:     logger.With("component", "tap-bridge"),
		dev:     dev,
		file:    file,
		pool:    pool,
		scratch: make([]byte, frameBufSize),
	}
}

// ForwardOut parses a raw frame from the host into a Packet and hands it
// to the bridged device for routing onto the emulated network. On a
// successful Send the transmission owns the packet; a routing failure
// leaves ownership here, so the buffer is released before returning.
func (b *TapBridge) ForwardOut(data []byte) error {
	p := packet.New(b.pool, data, b.log)
	if err := b.dev.Send(p); err != nil {
		p.Release()
		return err
	}
	return nil
}

// ForwardIn writes an arriving packet's frame back to the TAP fd, so the
// host kernel delivers it to whatever is attached on the other side. A nil
// return means the packet was consumed: its buffer is released here after
// the frame is copied out. On error the caller keeps ownership.
func (b *TapBridge) ForwardIn(p *packet.Packet) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if p.Size() > len(b.scratch) {
		return errx.With(ErrFrameTooLarge, ": %d bytes", p.Size())
	}
	if !p.CopyData(b.scratch[:p.Size()]) {
		return errx.With(ErrFrameTooLarge, ": %d bytes", p.Size())
	}
	if _, err := b.file.Write(b.scratch[:p.Size()]); err != nil {
		return errx.Wrap(ErrWriteTap, err)
	}
	p.Release()
	return nil
}

var _ Bridge = (*TapBridge)(nil)
var _ device.Bridge = (*TapBridge)(nil)
