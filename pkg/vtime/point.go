package vtime

import "time"

// TimePoint is an instant on the virtual clock: nanoseconds since an
// arbitrary epoch. Two TimePoints are only meaningfully comparable if they
// originate from the same Clock.
type TimePoint struct {
	ns int64
}

func (p TimePoint) Add(d TimeDelta) TimePoint { return TimePoint{p.ns + d.ns} }
func (p TimePoint) Sub(d TimeDelta) TimePoint { return TimePoint{p.ns - d.ns} }

// Delta returns p - other as a TimeDelta.
func (p TimePoint) Delta(other TimePoint) TimeDelta { return TimeDelta{p.ns - other.ns} }

func (p TimePoint) Before(other TimePoint) bool { return p.ns < other.ns }
func (p TimePoint) After(other TimePoint) bool  { return p.ns > other.ns }
func (p TimePoint) Equal(other TimePoint) bool  { return p.ns == other.ns }

// AsWallClock renders the point as a standard library time.Time, assuming
// the TimePoint was derived from System.Now (i.e. anchored to the real
// process clock); capture uses it to timestamp trace records.
func (p TimePoint) AsWallClock() time.Time {
	return time.Unix(0, p.ns)
}

// Clock is the simulator's source of TimePoints. The default clock wraps
// time.Now; FakeClock is advanced by hand. The scheduler still sleeps on
// real timers whatever its Clock (see scheduler.NewWithClock).
type Clock interface {
	Now() TimePoint
}

type systemClock struct{}

// System is the Clock backed by the real wall clock.
var System Clock = systemClock{}

func (systemClock) Now() TimePoint { return TimePoint{time.Now().UnixNano()} }

// FakeClock is a manually-advanced Clock for deterministic tests.
type FakeClock struct {
	now int64
}

// NewFakeClock creates a FakeClock starting at the given nanosecond offset.
func NewFakeClock(startNs int64) *FakeClock { return &FakeClock{now: startNs} }

func (c *FakeClock) Now() TimePoint { return TimePoint{c.now} }

func (c *FakeClock) Advance(d TimeDelta) { c.now += d.ns }
