// Package vtime provides the simulator's virtual-time primitives: a signed
// duration (TimeDelta) and an instant on the simulation clock (TimePoint).
// Both are nanosecond-resolution int64 wrappers.
package vtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araneid-sim/araneid/internal/errx"
)

// TimeDelta is a signed duration stored as nanoseconds.
type TimeDelta struct {
	ns int64
}

// Zero is the zero-value TimeDelta, provided for readability at call sites.
var Zero = TimeDelta{}

func Hours(h int64) TimeDelta   { return TimeDelta{h * int64(time.Hour)} }
func Minutes(m int64) TimeDelta { return TimeDelta{m * int64(time.Minute)} }
func Seconds(s int64) TimeDelta { return TimeDelta{s * int64(time.Second)} }
func Millis(ms int64) TimeDelta { return TimeDelta{ms * int64(time.Millisecond)} }
func Micros(us int64) TimeDelta { return TimeDelta{us * int64(time.Microsecond)} }
func Nanos(ns int64) TimeDelta  { return TimeDelta{ns} }

// FromDuration adapts a standard library time.Duration.
func FromDuration(d time.Duration) TimeDelta { return TimeDelta{int64(d)} }

// Duration adapts back to the standard library for use with time.Timer etc.
func (d TimeDelta) Duration() time.Duration { return time.Duration(d.ns) }

func (d TimeDelta) Nanoseconds() int64  { return d.ns }
func (d TimeDelta) Microseconds() int64 { return d.ns / int64(time.Microsecond) }
func (d TimeDelta) Milliseconds() int64 { return d.ns / int64(time.Millisecond) }
func (d TimeDelta) Seconds() int64      { return d.ns / int64(time.Second) }
func (d TimeDelta) Minutes() int64      { return d.ns / int64(time.Minute) }
func (d TimeDelta) Hours() int64        { return d.ns / int64(time.Hour) }

func (d TimeDelta) Add(other TimeDelta) TimeDelta { return TimeDelta{d.ns + other.ns} }
func (d TimeDelta) Sub(other TimeDelta) TimeDelta { return TimeDelta{d.ns - other.ns} }

func (d TimeDelta) IsZero() bool { return d.ns == 0 }

func (d TimeDelta) Compare(other TimeDelta) int {
	switch {
	case d.ns < other.ns:
		return -1
	case d.ns > other.ns:
		return 1
	default:
		return 0
	}
}

func (d TimeDelta) Less(other TimeDelta) bool         { return d.ns < other.ns }
func (d TimeDelta) LessOrEqual(other TimeDelta) bool  { return d.ns <= other.ns }
func (d TimeDelta) Greater(other TimeDelta) bool      { return d.ns > other.ns }
func (d TimeDelta) GreaterOrEqual(other TimeDelta) bool { return d.ns >= other.ns }
func (d TimeDelta) Equal(other TimeDelta) bool        { return d.ns == other.ns }

// String renders the delta preferring the largest unit that divides it
// evenly.
func (d TimeDelta) String() string {
	ns := d.ns
	if ns == 0 {
		return "0s"
	}
	sign := ""
	if ns < 0 {
		sign = "-"
		ns = -ns
	}
	switch {
	case ns%int64(time.Hour) == 0:
		return fmt.Sprintf("%s%dh", sign, ns/int64(time.Hour))
	case ns%int64(time.Minute) == 0:
		return fmt.Sprintf("%s%dm", sign, ns/int64(time.Minute))
	case ns%int64(time.Second) == 0:
		return fmt.Sprintf("%s%ds", sign, ns/int64(time.Second))
	case ns%int64(time.Millisecond) == 0:
		return fmt.Sprintf("%s%dms", sign, ns/int64(time.Millisecond))
	case ns%int64(time.Microsecond) == 0:
		return fmt.Sprintf("%s%dus", sign, ns/int64(time.Microsecond))
	default:
		return fmt.Sprintf("%s%dns", sign, ns)
	}
}

// ParseTimeDelta parses a compound duration string such as "1h2min3s4ms"
// or "4ms5us". Supported unit suffixes: h, min, s, ms, us, ns.
func ParseTimeDelta(s string) (TimeDelta, error) {
	if s == "" {
		return Zero, errx.With(ErrParseDelta, ": empty string")
	}
	var total int64
	rest := s
	for len(rest) > 0 {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return Zero, errx.With(ErrParseDelta, ": %q: expected digits at %q", s, rest)
		}
		value, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return Zero, errx.Wrap(ErrParseDelta, err)
		}
		rest = rest[i:]

		unit, unitLen := "", 0
		switch {
		case strings.HasPrefix(rest, "min"):
			unit, unitLen = "min", 3
		case strings.HasPrefix(rest, "ms"):
			unit, unitLen = "ms", 2
		case strings.HasPrefix(rest, "us"):
			unit, unitLen = "us", 2
		case strings.HasPrefix(rest, "ns"):
			unit, unitLen = "ns", 2
		case strings.HasPrefix(rest, "h"):
			unit, unitLen = "h", 1
		case strings.HasPrefix(rest, "s"):
			unit, unitLen = "s", 1
		default:
			return Zero, errx.With(ErrUnknownUnit, ": %q", s)
		}
		rest = rest[unitLen:]

		switch unit {
		case "h":
			total += value * int64(time.Hour)
		case "min":
			total += value * int64(time.Minute)
		case "s":
			total += value * int64(time.Second)
		case "ms":
			total += value * int64(time.Millisecond)
		case "us":
			total += value * int64(time.Microsecond)
		case "ns":
			total += value
		}
	}
	return TimeDelta{total}, nil
}
