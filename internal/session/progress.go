package session

import "time"

// Steps is the number of ticks from zero to full progress.
const Steps = 100

// minTickInterval keeps zero-length sessions from spinning a zero ticker.
const minTickInterval = time.Millisecond

// TickInterval returns the time per progress step for a session of
// durationSeconds: durationSeconds*1000/Steps milliseconds.
func TickInterval(durationSeconds int) time.Duration {
	d := time.Duration(durationSeconds) * time.Second / Steps
	if d < minTickInterval {
		return minTickInterval
	}
	return d
}

// Scale returns full scaled by progress/Steps. Progress is clamped to
// [0, Steps].
func Scale(full float64, progress int) float64 {
	progress = min(max(progress, 0), Steps)
	return full * float64(progress) / Steps
}

// Remaining returns the nominal time left at progress.
func Remaining(durationSeconds, progress int) time.Duration {
	progress = min(max(progress, 0), Steps)
	return TickInterval(durationSeconds) * time.Duration(Steps-progress)
}
