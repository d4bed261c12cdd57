package units_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/araneid-sim/araneid/pkg/units"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

func TestDataSizeRoundTrip(t *testing.T) {
	assert.Equal(t, uint64(4096), units.Bytes(4096).Bytes())
	assert.Equal(t, uint64(8), units.KiB(1).Bytes()/1024*8)
	assert.Equal(t, uint64(8192), units.KiB(1).Bits())
	assert.Equal(t, uint64(8388608), units.MiB(1).Bits())
}

func TestDataSizeSubSaturates(t *testing.T) {
	small := units.Bytes(10)
	big := units.Bytes(100)

	assert.Equal(t, units.ZeroSize, small.Sub(big))
	assert.Equal(t, units.Bytes(90), big.Sub(small))
}

func TestDataSizeString(t *testing.T) {
	assert.Equal(t, "1GiB", units.GiB(1).String())
	assert.Equal(t, "1MiB", units.MiB(1).String())
	assert.Equal(t, "1KiB", units.KiB(1).String())
	assert.Equal(t, "10B", units.Bytes(10).String())
	assert.Equal(t, "5bit", units.Bits(5).String())
}

func TestDataSizeDivDurationRoundTrip(t *testing.T) {
	size := units.MiB(1)
	d := vtime.Seconds(1)

	rate := size.DivDuration(d)
	back := rate.Mul(d)

	// allow for float rounding in the bits/sec conversion
	assert.InDelta(t, float64(size.Bits()), float64(back.Bits()), 1)
}

func TestDataSizeDivRate(t *testing.T) {
	size := units.MiB(8) // 64Mbit
	rate := units.MiBPerSecond(8)

	d := size.DivRate(rate)
	assert.Equal(t, vtime.Seconds(1), d)
}

func TestDataRateNeverNegative(t *testing.T) {
	r := units.BitsPerSecond(-100)
	assert.True(t, r.IsZero())
}

func TestDataRateMulZeroDuration(t *testing.T) {
	rate := units.MiBPerSecond(1)
	assert.Equal(t, units.ZeroSize, rate.Mul(vtime.Zero))
}

func TestParseDataSize(t *testing.T) {
	size, err := units.ParseDataSize("10KiB")
	assert.NoError(t, err)
	assert.Equal(t, units.KiB(10), size)

	size, err = units.ParseDataSize("1500B")
	assert.NoError(t, err)
	assert.Equal(t, units.Bytes(1500), size)

	_, err = units.ParseDataSize("bogus")
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
}

func TestParseDataRate(t *testing.T) {
	rate, err := units.ParseDataRate("10Mbps")
	assert.NoError(t, err)
	assert.Equal(t, units.MiBPerSecond(10), rate)

	_, err = units.ParseDataRate("nonsense")
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
}
