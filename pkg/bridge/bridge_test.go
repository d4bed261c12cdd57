package bridge

import (
	"net"
	"net/netip"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneid-sim/araneid/pkg/chunk"
	"github.com/araneid-sim/araneid/pkg/packet"
	"github.com/araneid-sim/araneid/pkg/transmission"
)

type fakeDevice struct {
	mu   sync.Mutex
	sent []*packet.Packet
}

func (d *fakeDevice) Send(p *packet.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, p)
	return nil
}

func (d *fakeDevice) Receive(p *packet.Packet) error { return nil }

func (d *fakeDevice) AddTransmission(dst netip.Addr, t *transmission.Transmission) {}

func (d *fakeDevice) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func ipv4Frame(src, dst string, payload int) []byte {
	frame := make([]byte, 14+20+payload)
	frame[12], frame[13] = 0x08, 0x00
	frame[14] = 0x45
	copy(frame[14+12:14+16], net.ParseIP(src).To4())
	copy(frame[14+16:14+20], net.ParseIP(dst).To4())
	return frame
}

func TestForwardOutParsesAndSends(t *testing.T) {
	dev := &fakeDevice{}
	br := NewTapBridge(dev, nil, chunk.NewPool(0), nil)

	require.NoError(t, br.ForwardOut(ipv4Frame("10.0.0.1", "10.0.0.2", 40)))

	require.Len(t, dev.sent, 1)
	assert.Equal(t, "10.0.0.1", dev.sent[0].SrcIPv4.String())
	assert.Equal(t, "10.0.0.2", dev.sent[0].DstIPv4.String())
}

func TestForwardInWritesFrameToFd(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()
	defer writer.Close()

	pool := chunk.NewPool(0)
	br := NewTapBridge(&fakeDevice{}, writer, pool, nil)

	frame := ipv4Frame("10.0.0.1", "10.0.0.2", 26)
	p := packet.New(pool, frame, nil)
	require.NoError(t, br.ForwardIn(p))

	got := make([]byte, len(frame))
	_, err = reader.Read(got)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestFdReaderForwardsFrames(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()
	defer writer.Close()

	dev := &fakeDevice{}
	br := NewTapBridge(dev, nil, chunk.NewPool(0), nil)
	fr := NewFdReader(reader, br, nil)
	fr.Start()

	frame := ipv4Frame("10.0.0.1", "10.0.0.2", 40)
	_, err = writer.Write(frame)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return dev.sentCount() == 1 }, time.Second, 5*time.Millisecond)
	fr.Stop()
}

func TestFdReaderStopsOnEOF(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()

	fr := NewFdReader(reader, NewTapBridge(&fakeDevice{}, nil, chunk.NewPool(0), nil), nil)
	fr.Start()

	writer.Close()

	donech := make(chan struct{})
	go func() {
		fr.Stop()
		close(donech)
	}()
	select {
	case <-donech:
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after fd EOF")
	}
}

func TestFdReaderStopIsIdempotent(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()
	defer writer.Close()

	fr := NewFdReader(reader, NewTapBridge(&fakeDevice{}, nil, chunk.NewPool(0), nil), nil)
	fr.Start()
	fr.Stop()
	fr.Stop()
}
