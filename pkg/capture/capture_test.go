package capture

import (
	"net/netip"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneid-sim/araneid/pkg/units"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.cbor")
	w, err := NewWriter(path)
	require.NoError(t, err)

	src := netip.MustParseAddr("10.0.0.1")
	dst := netip.MustParseAddr("10.0.0.2")
	now := vtime.System.Now()

	w.RecordAdmit(now, src, dst, units.Bytes(1000))
	w.RecordDrop(now, "buffer-overflow", src, dst, units.Bytes(1000))
	w.RecordArrival(now, src, dst, units.Bytes(1000))
	require.NoError(t, w.Close())

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, EventAdmit, records[0].Event)
	assert.Equal(t, EventDrop, records[1].Event)
	assert.Equal(t, "buffer-overflow", records[1].Reason)
	assert.Equal(t, EventArrival, records[2].Event)
	for _, rec := range records {
		assert.Equal(t, "10.0.0.1", rec.Src)
		assert.Equal(t, "10.0.0.2", rec.Dst)
		assert.Equal(t, uint64(1000), rec.Bytes)
	}
}

func TestInvalidAddrRendersEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.cbor")
	w, err := NewWriter(path)
	require.NoError(t, err)

	w.RecordDrop(vtime.System.Now(), "loss", netip.Addr{}, netip.Addr{}, units.Bytes(60))
	require.NoError(t, w.Close())

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Src)
	assert.Empty(t, records[0].Dst)
}

func TestReadAllMissingFile(t *testing.T) {
	_, err := ReadAll(filepath.Join(t.TempDir(), "nope.cbor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadTrace)
}
