package session

import (
	"fmt"
	"time"
)

// Clock abstracts wall-clock time and tickers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the real clock, in local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ *time.Ticker }

func (t systemTicker) C() <-chan time.Time { return t.Ticker.C }

// TickInterval is how often the on-site clock is redrawn.
const TickInterval = time.Second

// FormatClock renders d as HH:MM:SS. Negative durations render as zero and
// hours are not wrapped at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDuration renders a completed visit as "1h 5m", or "45m" under an hour.
// Seconds are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// TimeOfDay renders t as HH:MM, the format of Job.TimeIn and Job.TimeOut.
func TimeOfDay(t time.Time) string {
	return t.Format("15:04")
}

// clockOrigin anchors a HH:MM time of day on the calendar day of now.
func clockOrigin(now time.Time, timeIn string) (time.Time, error) {
	tod, err := time.Parse("15:04", timeIn)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time in %q: %w", timeIn, err)
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, tod.Hour(), tod.Minute(), 0, 0, now.Location()), nil
}
