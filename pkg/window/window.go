// Package window extracts contiguous time windows where the interpolated
// tide height sits inside a threshold band.
package window

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa/pchip"
	"github.com/spencer-p/tidecal/pkg/sunset"
	"github.com/spencer-p/tidecal/pkg/timetricks"
)

const clockFmt = "3:04 PM"

// Threshold is a height band. A nil bound means unbounded on that side; both
// bounds nil matches every height.
type Threshold struct {
	Low, High *float64
}

// Matches reports whether h is strictly inside the band.
func (th Threshold) Matches(h float64) bool {
	switch {
	case th.Low != nil && th.High != nil:
		return h > *th.Low && h < *th.High
	case th.Low != nil:
		return h > *th.Low
	case th.High != nil:
		return h < *th.High
	default:
		return true
	}
}

// String renders the band the way exported event summaries label it.
func (th Threshold) String() string {
	return fmt.Sprintf("min %s max %s", bound(th.Low), bound(th.High))
}

func bound(f *float64) string {
	if f == nil {
		return "none"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

// Interval is a closed time range where the threshold held.
type Interval struct {
	Start, End time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s %s until %s",
		timetricks.Day(iv.Start),
		iv.Start.Format(clockFmt),
		iv.End.Format(clockFmt))
}

// Options tunes interval extraction.
type Options struct {
	// IncludeTrailingOpen emits a window that is still open when the series
	// runs out, closed at the final sample. The historical behavior is to
	// drop such a window because its true end is unknown; this knob makes
	// the choice explicit.
	IncludeTrailingOpen bool
}

// Find scans the series in time order and returns every maximal run of
// samples matching the threshold. A window opens at the first matching
// sample and closes at the next sample that fails the threshold, so both
// endpoints land on samples just outside the run's interior.
func Find(series pchip.Series, th Threshold, opts Options) []Interval {
	var result []Interval
	var start time.Time
	open := false

	for _, s := range series {
		if th.Matches(s.Height) {
			if !open {
				start = s.Time
				open = true
			}
			continue
		}
		if open {
			result = append(result, Interval{Start: start, End: s.Time})
			open = false
		}
	}

	if open && opts.IncludeTrailingOpen {
		last := series[len(series)-1].Time
		if last.After(start) {
			result = append(result, Interval{Start: start, End: last})
		}
	}

	return result
}

// ClipToDaylight intersects intervals with the sunrise-to-sunset windows of
// the given sun events. Slivers shorter than a minute are discarded.
func ClipToDaylight(ivs []Interval, events sunset.SunEvents) []Interval {
	var result []Interval
	for _, iv := range ivs {
		for i := 0; i+1 < len(events); i += 2 {
			if events[i].Event != sunset.Sunrise {
				continue
			}
			clipped, ok := iv.intersect(events[i].Time, events[i+1].Time)
			if ok {
				result = append(result, clipped)
			}
		}
	}
	return result
}

func (iv Interval) intersect(start, end time.Time) (Interval, bool) {
	if start.Before(iv.Start) {
		start = iv.Start
	}
	if end.After(iv.End) {
		end = iv.End
	}
	if end.Sub(start) < time.Minute {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}
