// Package units implements bit/byte quantities (DataSize) and rates
// (DataRate) with unit-aware arithmetic. DataSize never goes negative:
// subtraction saturates at zero.
package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

const (
	bitsPerByte = 8
	bitsPerKiB  = bitsPerByte * 1024
	bitsPerMiB  = bitsPerKiB * 1024
	bitsPerGiB  = bitsPerMiB * 1024
)

// DataSize is an unsigned bit count. It never represents a negative
// quantity: Sub saturates at zero on underflow.
type DataSize struct {
	bits uint64
}

var ZeroSize = DataSize{}

func Bits(n uint64) DataSize  { return DataSize{n} }
func Bytes(n uint64) DataSize { return DataSize{n * bitsPerByte} }
func KiB(n uint64) DataSize   { return DataSize{n * bitsPerKiB} }
func MiB(n uint64) DataSize   { return DataSize{n * bitsPerMiB} }
func GiB(n uint64) DataSize   { return DataSize{n * bitsPerGiB} }

func (s DataSize) Bits() uint64  { return s.bits }
func (s DataSize) Bytes() uint64 { return s.bits / bitsPerByte }
func (s DataSize) KiB() uint64   { return s.bits / bitsPerKiB }
func (s DataSize) MiB() uint64   { return s.bits / bitsPerMiB }
func (s DataSize) GiB() uint64   { return s.bits / bitsPerGiB }

func (s DataSize) Add(other DataSize) DataSize { return DataSize{s.bits + other.bits} }

// Sub saturates at zero rather than wrapping, per the invariant that a
// DataSize never goes negative.
func (s DataSize) Sub(other DataSize) DataSize {
	if other.bits >= s.bits {
		return ZeroSize
	}
	return DataSize{s.bits - other.bits}
}

func (s DataSize) Greater(other DataSize) bool      { return s.bits > other.bits }
func (s DataSize) GreaterOrEqual(other DataSize) bool { return s.bits >= other.bits }
func (s DataSize) Less(other DataSize) bool         { return s.bits < other.bits }
func (s DataSize) IsZero() bool                      { return s.bits == 0 }

// DivDuration returns the DataRate needed to transfer s over d.
func (s DataSize) DivDuration(d vtime.TimeDelta) DataRate {
	secs := float64(d.Nanoseconds()) / 1e9
	if secs <= 0 {
		return ZeroRate
	}
	return DataRate{float64(s.bits) / secs}
}

// DivRate returns how long it takes to transfer s at rate r.
func (s DataSize) DivRate(r DataRate) vtime.TimeDelta {
	if r.bps <= 0 {
		return vtime.Zero
	}
	secs := float64(s.bits) / r.bps
	return vtime.Nanos(int64(secs * 1e9))
}

func (s DataSize) String() string {
	switch {
	case s.bits >= bitsPerGiB && s.bits%bitsPerGiB == 0:
		return fmt.Sprintf("%dGiB", s.bits/bitsPerGiB)
	case s.bits >= bitsPerMiB && s.bits%bitsPerMiB == 0:
		return fmt.Sprintf("%dMiB", s.bits/bitsPerMiB)
	case s.bits >= bitsPerKiB && s.bits%bitsPerKiB == 0:
		return fmt.Sprintf("%dKiB", s.bits/bitsPerKiB)
	case s.bits%bitsPerByte == 0:
		return fmt.Sprintf("%dB", s.bits/bitsPerByte)
	default:
		return fmt.Sprintf("%dbit", s.bits)
	}
}

// DataRate is a non-negative bits-per-second quantity.
type DataRate struct {
	bps float64
}

var ZeroRate = DataRate{}

func BitsPerSecond(bps float64) DataRate  { return DataRate{clampNonNegative(bps)} }
func BytesPerSecond(Bps float64) DataRate { return DataRate{clampNonNegative(Bps * bitsPerByte)} }
func KiBPerSecond(v float64) DataRate     { return DataRate{clampNonNegative(v * bitsPerKiB)} }
func MiBPerSecond(v float64) DataRate     { return DataRate{clampNonNegative(v * bitsPerMiB)} }
func GiBPerSecond(v float64) DataRate     { return DataRate{clampNonNegative(v * bitsPerGiB)} }

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func (r DataRate) BitsPerSecond() float64  { return r.bps }
func (r DataRate) BytesPerSecond() float64 { return r.bps / bitsPerByte }
func (r DataRate) IsZero() bool            { return r.bps == 0 }

// Mul returns the DataSize transmitted over d at rate r.
func (r DataRate) Mul(d vtime.TimeDelta) DataSize {
	secs := float64(d.Nanoseconds()) / 1e9
	if secs <= 0 {
		return ZeroSize
	}
	return DataSize{uint64(r.bps * secs)}
}

func (r DataRate) String() string {
	switch {
	case r.bps >= bitsPerGiB:
		return fmt.Sprintf("%.2fGbps", r.bps/bitsPerGiB)
	case r.bps >= bitsPerMiB:
		return fmt.Sprintf("%.2fMbps", r.bps/bitsPerMiB)
	case r.bps >= bitsPerKiB:
		return fmt.Sprintf("%.2fKbps", r.bps/bitsPerKiB)
	default:
		return fmt.Sprintf("%.2fbps", r.bps)
	}
}

// ParseDataSize parses strings like "1500B", "10KiB", "4MiB" for topology
// configuration files (see cmd/araneid's topology loader).
func ParseDataSize(s string) (DataSize, error) {
	value, unit, err := splitNumericSuffix(s)
	if err != nil {
		return ZeroSize, err
	}
	switch unit {
	case "GiB":
		return GiB(uint64(value)), nil
	case "MiB":
		return MiB(uint64(value)), nil
	case "KiB":
		return KiB(uint64(value)), nil
	case "B", "":
		return Bytes(uint64(value)), nil
	case "bit":
		return Bits(uint64(value)), nil
	default:
		return ZeroSize, errx.With(ErrUnknownUnit, ": %q", s)
	}
}

// ParseDataRate parses strings like "10Mbps", "1.5Gbps" for topology
// configuration files.
func ParseDataRate(s string) (DataRate, error) {
	trimmed := strings.TrimSuffix(s, "ps")
	value, unit, err := splitFloatSuffix(trimmed)
	if err != nil {
		return ZeroRate, err
	}
	switch unit {
	case "G", "Gb":
		return GiBPerSecond(value), nil
	case "M", "Mb":
		return MiBPerSecond(value), nil
	case "K", "Kb":
		return KiBPerSecond(value), nil
	case "", "b":
		return BitsPerSecond(value), nil
	default:
		return ZeroRate, errx.With(ErrUnknownUnit, ": %q", s)
	}
}

func splitNumericSuffix(s string) (int64, string, error) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
		i++
	}
	if i == 0 {
		return 0, "", errx.With(ErrUnknownUnit, ": %q: expected leading digits", s)
	}
	value, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", errx.Wrap(ErrUnknownUnit, err)
	}
	return value, s[i:], nil
}

func splitFloatSuffix(s string) (float64, string, error) {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, "", errx.With(ErrUnknownUnit, ": %q: expected leading digits", s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", errx.Wrap(ErrUnknownUnit, err)
	}
	return value, s[i:], nil
}
