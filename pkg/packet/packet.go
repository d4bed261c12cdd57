// Package packet parses Ethernet-II frames (with an optional 802.1Q VLAN
// tag) carrying IPv4 into an immutable Packet. Field extraction uses
// gvisor.dev/gvisor/pkg/tcpip/header for the parts gvisor understands
// (Ethernet addressing, IPv4 header layout); the 802.1Q tag has no header
// type in gvisor and is skipped manually.
package packet

import (
	"log/slog"
	"net/netip"

	"gvisor.dev/gvisor/pkg/tcpip/header"

	"github.com/araneid-sim/araneid/pkg/chunk"
)

const (
	// vlanTPID is the 802.1Q EtherType; gvisor's header package has no
	// symbol for it since it never needs to parse tagged frames itself.
	vlanTPID      = 0x8100
	vlanTagSize   = 4
	ipv6EtherType = uint16(header.IPv6ProtocolNumber)
	ipv4EtherType = uint16(header.IPv4ProtocolNumber)
)

// Packet is immutable once constructed: the addresses and size are fixed
// at New, and ParseErr (if non-nil) records why SrcIPv4/DstIPv4 came back
// zero.
type Packet struct {
	buf      *chunk.Buffer
	size     int
	SrcIPv4  netip.Addr
	DstIPv4  netip.Addr
	ParseErr error
}

// New copies data into a buffer from pool and parses its Ethernet/IPv4
// headers. A parse failure still returns a Packet, with empty addresses and
// ParseErr set; the receiving device will then fail routing it.
func New(pool *chunk.Pool, data []byte, logger *slog.Logger) *Packet {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "packet")

	buf := pool.NewBuffer(len(data))
	buf.Write(data)

	p := &Packet{buf: buf, size: len(data)}
	if err := p.parse(data); err != nil {
		p.ParseErr = err
		logger.Info("packet parse failed", "error", err, "size", len(data))
	}
	return p
}

func (p *Packet) parse(data []byte) error {
	if len(data) < header.EthernetMinimumSize {
		return ErrTruncatedEthernet
	}
	eth := header.Ethernet(data[:header.EthernetMinimumSize])
	etherType := uint16(eth.Type())
	rest := data[header.EthernetMinimumSize:]

	if etherType == vlanTPID {
		if len(rest) < vlanTagSize {
			return ErrTruncatedVLAN
		}
		// TCI occupies the first 2 bytes of the tag; the inner EtherType
		// follows it, big-endian.
		etherType = uint16(rest[2])<<8 | uint16(rest[3])
		rest = rest[vlanTagSize:]
	}

	switch etherType {
	case ipv4EtherType:
		return p.parseIPv4(rest)
	case ipv6EtherType:
		return ErrUnsupportedIPv6
	default:
		return ErrUnsupportedEther
	}
}

func (p *Packet) parseIPv4(rest []byte) error {
	if len(rest) < header.IPv4MinimumSize {
		return ErrTruncatedIPv4
	}
	ip := header.IPv4(rest)
	if ip.HeaderLength() < header.IPv4MinimumSize {
		return ErrBadIHL
	}
	if int(ip.HeaderLength()) > len(rest) {
		return ErrBadIHL
	}
	if header.IPVersion(rest) != header.IPv4Version {
		return ErrBadIPVersion
	}

	srcAddr := ip.SourceAddress()
	dstAddr := ip.DestinationAddress()
	src, ok := netip.AddrFromSlice(srcAddr.AsSlice())
	if !ok {
		return ErrTruncatedIPv4
	}
	dst, ok := netip.AddrFromSlice(dstAddr.AsSlice())
	if !ok {
		return ErrTruncatedIPv4
	}
	p.SrcIPv4 = src
	p.DstIPv4 = dst
	return nil
}

// Size is the declared frame size in bytes.
func (p *Packet) Size() int { return p.size }

// CopyData copies the whole frame into dst and reports true. If dst is
// shorter than Size, nothing is copied and it reports false.
func (p *Packet) CopyData(dst []byte) bool {
	if len(dst) < p.size {
		return false
	}
	copy(dst, p.buf.Bytes(p.size))
	return true
}

// Release returns the packet's backing buffer to its pool. Callers that
// hand a Packet to multiple consumers (e.g. a Transmission queueing it for
// later delivery) should Clone the underlying buffer rather than share a
// single Packet across Release calls; araneid's pipeline keeps one owner
// per Packet so a single Release suffices.
func (p *Packet) Release() { p.buf.Release() }
