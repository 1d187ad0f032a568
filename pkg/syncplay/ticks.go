package syncplay

import "time"

// The server expresses positions in ticks of 100ns.
const nanosPerTick = 100

// TicksToDuration converts server position ticks to a duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * nanosPerTick)
}

// DurationToTicks converts a duration to server position ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d) / nanosPerTick
}

// TicksToMS converts ticks to whole milliseconds.
func TicksToMS(ticks int64) int64 {
	if ticks <= 0 {
		return 0
	}
	return ticks / 10000
}
