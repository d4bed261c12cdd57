package transmission

import (
	"math/rand/v2"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/packet"
)

// PacketLoss decides whether a packet entering a Transmission should be
// dropped before the delay and queue stages see it.
type PacketLoss interface {
	ShouldDropPacket(p *packet.Packet) bool
	Name() string
}

// RandomPacketLoss drops packets independently with probability rate.
type RandomPacketLoss struct {
	rate float64
}

// NewRandomPacketLoss validates rate is in [0,1]; out-of-range rates are a
// configuration error, fatal at the CLI boundary.
func NewRandomPacketLoss(rate float64) (*RandomPacketLoss, error) {
	if rate < 0.0 || rate > 1.0 {
		return nil, errx.With(ErrInvalidLossRate, ": %f", rate)
	}
	return &RandomPacketLoss{rate: rate}, nil
}

func (l *RandomPacketLoss) ShouldDropPacket(p *packet.Packet) bool {
	return rand.Float64() < l.rate
}

func (l *RandomPacketLoss) Name() string { return "RandomPacketLoss" }

// NoLoss never drops a packet; useful for tests and links with loss
// modeled elsewhere (e.g. upstream NAT).
type NoLoss struct{}

func (NoLoss) ShouldDropPacket(*packet.Packet) bool { return false }
func (NoLoss) Name() string                         { return "NoLoss" }
