package packet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneid-sim/araneid/pkg/chunk"
)

func ethernetFrame(etherType uint16, payload []byte) []byte {
	frame := make([]byte, 14+len(payload))
	copy(frame[0:6], []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}) // dst mac
	copy(frame[6:12], []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02}) // src mac
	frame[12] = byte(etherType >> 8)
	frame[13] = byte(etherType)
	copy(frame[14:], payload)
	return frame
}

func ipv4Header(src, dst string, payloadLen int) []byte {
	hdr := make([]byte, 20+payloadLen)
	hdr[0] = 0x45 // version 4, IHL 5
	hdr[9] = 17   // protocol: irrelevant for our parser
	copy(hdr[12:16], net.ParseIP(src).To4())
	copy(hdr[16:20], net.ParseIP(dst).To4())
	return hdr
}

func TestParseIPv4Frame(t *testing.T) {
	pool := chunk.NewPool(0)
	frame := ethernetFrame(0x0800, ipv4Header("10.0.0.1", "10.0.0.2", 0))

	p := New(pool, frame, nil)
	require.NoError(t, p.ParseErr)
	assert.Equal(t, "10.0.0.1", p.SrcIPv4.String())
	assert.Equal(t, "10.0.0.2", p.DstIPv4.String())
	assert.Equal(t, len(frame), p.Size())
}

func TestParseVLANTaggedIPv4Frame(t *testing.T) {
	pool := chunk.NewPool(0)
	ip := ipv4Header("10.0.0.1", "10.0.0.2", 0)
	vlan := make([]byte, 4+len(ip))
	vlan[0], vlan[1] = 0x00, 0x0a // TCI
	vlan[2], vlan[3] = 0x08, 0x00 // inner ethertype: IPv4
	copy(vlan[4:], ip)
	frame := ethernetFrame(0x8100, vlan)

	p := New(pool, frame, nil)
	require.NoError(t, p.ParseErr)
	assert.Equal(t, "10.0.0.1", p.SrcIPv4.String())
	assert.Equal(t, "10.0.0.2", p.DstIPv4.String())
}

func TestParseUnsupportedIPv6(t *testing.T) {
	pool := chunk.NewPool(0)
	frame := ethernetFrame(0x86dd, make([]byte, 40))

	p := New(pool, frame, nil)
	assert.ErrorIs(t, p.ParseErr, ErrUnsupportedIPv6)
	assert.False(t, p.SrcIPv4.IsValid())
	assert.False(t, p.DstIPv4.IsValid())
}

func TestParseUnknownEtherType(t *testing.T) {
	pool := chunk.NewPool(0)
	frame := ethernetFrame(0x1234, []byte{1, 2, 3})

	p := New(pool, frame, nil)
	assert.ErrorIs(t, p.ParseErr, ErrUnsupportedEther)
}

func TestParseTruncatedEthernet(t *testing.T) {
	pool := chunk.NewPool(0)
	p := New(pool, []byte{1, 2, 3}, nil)
	assert.ErrorIs(t, p.ParseErr, ErrTruncatedEthernet)
}

func TestParseBadIHL(t *testing.T) {
	pool := chunk.NewPool(0)
	ip := ipv4Header("10.0.0.1", "10.0.0.2", 0)
	ip[0] = 0x4f // IHL = 15, header length 60 > remaining
	frame := ethernetFrame(0x0800, ip)

	p := New(pool, frame, nil)
	assert.ErrorIs(t, p.ParseErr, ErrBadIHL)
}

func TestCopyData(t *testing.T) {
	pool := chunk.NewPool(0)
	frame := ethernetFrame(0x0800, ipv4Header("1.2.3.4", "5.6.7.8", 0))
	p := New(pool, frame, nil)

	out := make([]byte, p.Size())
	require.True(t, p.CopyData(out))
	assert.Equal(t, frame, out)

	short := make([]byte, p.Size()-1)
	assert.False(t, p.CopyData(short))
}
