// Package transmission implements the loss -> delay -> bandwidth/queue
// channel state machine. The InFlight and ReceiveFromNetwork stages are
// both scheduled through a *scheduler.Scheduler, so arrival times come out
// of the same virtual clock that drives the rest of the simulation.
package transmission

import (
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/araneid-sim/araneid/pkg/packet"
	"github.com/araneid-sim/araneid/pkg/scheduler"
	"github.com/araneid-sim/araneid/pkg/units"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

// Receiver is the device-side endpoint of a Transmission. device.Device
// satisfies it without either package importing the other.
type Receiver interface {
	Receive(p *packet.Packet) error
}

// Recorder observes admit/drop/arrival transitions for capture tracing.
// capture.Writer satisfies this structurally; a nil Recorder is a no-op.
type Recorder interface {
	RecordAdmit(t vtime.TimePoint, src, dst netip.Addr, size units.DataSize)
	RecordDrop(t vtime.TimePoint, reason string, src, dst netip.Addr, size units.DataSize)
	RecordArrival(t vtime.TimePoint, src, dst netip.Addr, size units.DataSize)
}

// Transmission is one directional emulated link: loss, then propagation
// delay, then a bandwidth-limited, tail-drop queue. Each dynamic field is
// guarded by its own mutex and none are ever held together: each stage
// releases one guard before acquiring the next.
type Transmission struct {
	sched *scheduler.Scheduler
	clock vtime.Clock
	log   *slog.Logger

	connected atomic.Bool

	lossMu sync.RWMutex
	loss   PacketLoss

	delayMu sync.RWMutex
	delay   vtime.TimeDelta

	bwMu sync.RWMutex
	bw   units.DataRate

	bufMu  sync.Mutex
	bufCap units.DataSize
	cached units.DataSize

	receiverMu sync.RWMutex
	receiver   Receiver

	recorder Recorder
}

// Config bundles the channel's constructor parameters.
type Config struct {
	Loss           PacketLoss
	Delay          vtime.TimeDelta
	Bandwidth      units.DataRate
	BufferCapacity units.DataSize
	Logger         *slog.Logger
	Recorder       Recorder
	Clock          vtime.Clock
}

// New builds a Transmission. It starts Connected; disconnection is an
// explicit Disconnect() call, not a constructor flag.
func New(sched *scheduler.Scheduler, cfg Config) *Transmission {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = vtime.System
	}
	t := &Transmission{
		sched:    sched,
		clock:    clock,
		log:      logger.With("component", "transmission"),
		loss:     cfg.Loss,
		delay:    cfg.Delay,
		bw:       cfg.Bandwidth,
		bufCap:   cfg.BufferCapacity,
		recorder: cfg.Recorder,
	}
	if t.loss == nil {
		t.loss = NoLoss{}
	}
	t.connected.Store(true)
	return t
}

func (t *Transmission) Connect()          { t.connected.Store(true) }
func (t *Transmission) Disconnect()       { t.connected.Store(false) }
func (t *Transmission) IsConnected() bool { return t.connected.Load() }

func (t *Transmission) SetReceiver(r Receiver) {
	t.receiverMu.Lock()
	defer t.receiverMu.Unlock()
	t.receiver = r
}

// SetDelay takes effect only for packets that enter the delay stage after
// this call returns; packets already scheduled for InFlight under the old
// delay complete under it, since the scheduled closure already captured
// the value read at SendToNetwork time.
func (t *Transmission) SetDelay(d vtime.TimeDelta) {
	t.delayMu.Lock()
	defer t.delayMu.Unlock()
	t.delay = d
}

func (t *Transmission) SetPacketLoss(l PacketLoss) {
	t.lossMu.Lock()
	defer t.lossMu.Unlock()
	t.loss = l
}

func (t *Transmission) SetBottleneckBandwidth(r units.DataRate) {
	t.bwMu.Lock()
	defer t.bwMu.Unlock()
	t.bw = r
}

func (t *Transmission) SetBottleneckBufferSize(size units.DataSize) {
	t.bufMu.Lock()
	defer t.bufMu.Unlock()
	t.bufCap = size
}

// SendToNetwork is the channel's ingress: loss, then delay scheduling.
// The transmission owns the packet from here on: every drop branch
// releases its buffer, and delivery hands ownership to the receiver.
func (t *Transmission) SendToNetwork(p *packet.Packet) {
	if !t.IsConnected() {
		t.log.Info("not connected, dropping packet")
		p.Release()
		return
	}

	t.lossMu.RLock()
	loss := t.loss
	t.lossMu.RUnlock()
	if loss.ShouldDropPacket(p) {
		t.log.Info("packet dropped by loss model", "model", loss.Name())
		t.record(func(now vtime.TimePoint) { t.recorder.RecordDrop(now, "loss", p.SrcIPv4, p.DstIPv4, units.Bytes(uint64(p.Size()))) })
		p.Release()
		return
	}

	t.delayMu.RLock()
	delay := t.delay
	t.delayMu.RUnlock()
	t.sched.Schedule(delay, func() { t.inFlight(p) })
}

// inFlight admits the packet into the bounded queue (tail-drop) and
// schedules its arrival after serialization at the bottleneck bandwidth.
func (t *Transmission) inFlight(p *packet.Packet) {
	size := units.Bytes(uint64(p.Size()))

	t.bufMu.Lock()
	if t.cached.Add(size).GreaterOrEqual(t.bufCap) {
		t.bufMu.Unlock()
		t.log.Info("buffer overflow, dropping packet", "queued", t.cached, "capacity", t.bufCap)
		t.record(func(now vtime.TimePoint) { t.recorder.RecordDrop(now, "buffer-overflow", p.SrcIPv4, p.DstIPv4, size) })
		p.Release()
		return
	}
	t.cached = t.cached.Add(size)
	t.bufMu.Unlock()

	t.record(func(now vtime.TimePoint) { t.recorder.RecordAdmit(now, p.SrcIPv4, p.DstIPv4, size) })

	t.bwMu.RLock()
	bw := t.bw
	t.bwMu.RUnlock()
	serviceTime := size.DivRate(bw)
	t.sched.Schedule(serviceTime, func() { t.receiveFromNetwork(p) })
}

// receiveFromNetwork vacates the queue slot and hands the packet to the
// bound receiver, if any.
func (t *Transmission) receiveFromNetwork(p *packet.Packet) {
	size := units.Bytes(uint64(p.Size()))

	t.bufMu.Lock()
	if t.cached.Less(size) {
		t.bufMu.Unlock()
		t.log.Error("cached buffer size is less than packet size", "cached", t.cached, "size", size)
		p.Release()
		return
	}
	t.cached = t.cached.Sub(size)
	t.bufMu.Unlock()

	t.receiverMu.RLock()
	r := t.receiver
	t.receiverMu.RUnlock()

	if r == nil {
		t.log.Error("no receiver bound, dropping packet")
		p.Release()
		return
	}
	t.record(func(now vtime.TimePoint) { t.recorder.RecordArrival(now, p.SrcIPv4, p.DstIPv4, size) })
	// A successful Receive consumes the packet (the bridge releases it
	// after copying the frame out); on error ownership stays here.
	if err := r.Receive(p); err != nil {
		t.log.Error("receiver rejected packet", "error", err)
		p.Release()
	}
}

// QueuedBytes reports the current in-flight queue occupancy, for tests and
// observability.
func (t *Transmission) QueuedBytes() units.DataSize {
	t.bufMu.Lock()
	defer t.bufMu.Unlock()
	return t.cached
}

func (t *Transmission) record(fn func(now vtime.TimePoint)) {
	if t.recorder == nil {
		return
	}
	fn(t.clock.Now())
}
