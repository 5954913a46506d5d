package market

import "time"

// Interval identifies the bar duration of a candle series.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval1H    Interval = "1h"
	Interval4H    Interval = "4h"
	Interval1Day  Interval = "1day"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1Min:  time.Minute,
	Interval5Min:  5 * time.Minute,
	Interval15Min: 15 * time.Minute,
	Interval30Min: 30 * time.Minute,
	Interval1H:    time.Hour,
	Interval4H:    4 * time.Hour,
	Interval1Day:  24 * time.Hour,
}

// Duration returns the wall-clock length of one bar.
// Unknown intervals fall back to 5 minutes, the engine default.
func (i Interval) Duration() time.Duration {
	if d, ok := intervalDurations[i]; ok {
		return d
	}
	return 5 * time.Minute
}

// Known reports whether the interval is one the candle model understands.
// Whether it is accepted by a running engine is decided by the configured
// allow-list, not here.
func (i Interval) Known() bool {
	_, ok := intervalDurations[i]
	return ok
}
