package logic

import "time"

// Ticks is a monotonic millisecond counter that wraps at the maximum uint32,
// matching the millisecond counters of the controller hardware this decoder
// was timed against.
type Ticks uint32

// maxTicks is the clamp applied to accumulating pulse durations. A stuck
// line pins at this value instead of wrapping back to a plausible duration.
const maxTicks = Ticks(1<<32 - 1)

// Elapsed returns the time between two tick readings. Unsigned subtraction
// keeps the result correct when the counter wrapped between them.
func Elapsed(earlier, later Ticks) Ticks {
	return later - earlier
}

// TicksAt converts a wall-clock instant to ticks relative to start. The
// truncation to uint32 means a host running past ~49 days wraps exactly like
// a hardware millisecond counter, which Elapsed compensates for.
func TicksAt(start, now time.Time) Ticks {
	return Ticks(now.Sub(start).Milliseconds())
}

// satAdd adds two durations, pinning at maxTicks instead of wrapping.
func satAdd(a, b Ticks) Ticks {
	if s := a + b; s >= a {
		return s
	}
	return maxTicks
}
