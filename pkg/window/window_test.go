package window

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spencer-p/tidecal/pkg/noaa"
	"github.com/spencer-p/tidecal/pkg/noaa/pchip"
	"github.com/spencer-p/tidecal/pkg/sunset"
)

func ptr(f float64) *float64 { return &f }

var t0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// humpSeries interpolates a 1.0 -> 9.0 -> 1.0 tide over twelve hours to one
// minute resolution.
func humpSeries(t *testing.T) pchip.Series {
	t.Helper()
	preds := noaa.Predictions{
		{Time: noaa.Time(t0), Height: 1.0, Type: noaa.LowTide},
		{Time: noaa.Time(t0.Add(6 * time.Hour)), Height: 9.0, Type: noaa.HighTide},
		{Time: noaa.Time(t0.Add(12 * time.Hour)), Height: 1.0, Type: noaa.LowTide},
	}
	spl, err := pchip.New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return spl.Resample(time.Minute)
}

func TestThresholdMatches(t *testing.T) {
	table := []struct {
		name   string
		thresh Threshold
		height float64
		want   bool
	}{
		{"both bounds inside", Threshold{Low: ptr(1), High: ptr(3)}, 2, true},
		{"both bounds at low", Threshold{Low: ptr(1), High: ptr(3)}, 1, false},
		{"both bounds at high", Threshold{Low: ptr(1), High: ptr(3)}, 3, false},
		{"low only above", Threshold{Low: ptr(5)}, 5.01, true},
		{"low only at bound", Threshold{Low: ptr(5)}, 5, false},
		{"high only below", Threshold{High: ptr(0)}, -1, true},
		{"high only above", Threshold{High: ptr(0)}, 1, false},
		{"unbounded", Threshold{}, 123.4, true},
	}
	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.thresh.Matches(tc.height); got != tc.want {
				t.Errorf("Matches(%v) = %v, wanted %v", tc.height, got, tc.want)
			}
		})
	}
}

func TestThresholdString(t *testing.T) {
	table := []struct {
		thresh Threshold
		want   string
	}{
		{Threshold{Low: ptr(0.5), High: ptr(2)}, "min 0.5 max 2"},
		{Threshold{Low: ptr(5)}, "min 5 max none"},
		{Threshold{}, "min none max none"},
	}
	for _, tc := range table {
		if got := tc.thresh.String(); got != tc.want {
			t.Errorf("got %q, wanted %q", got, tc.want)
		}
	}
}

func TestFindHump(t *testing.T) {
	series := humpSeries(t)
	thresh := Threshold{Low: ptr(5.0)}

	ivs := Find(series, thresh, Options{})
	if len(ivs) != 1 {
		t.Fatalf("got %d intervals, wanted 1", len(ivs))
	}
	iv := ivs[0]

	// Both endpoints land strictly inside the series range.
	if !iv.Start.After(series[0].Time) {
		t.Errorf("interval starts at %s, wanted after %s", iv.Start, series[0].Time)
	}
	if !iv.End.Before(series[len(series)-1].Time) {
		t.Errorf("interval ends at %s, wanted before %s", iv.End, series[len(series)-1].Time)
	}
	if !iv.Start.Before(iv.End) {
		t.Fatalf("degenerate interval %s", iv)
	}

	// The threshold holds at every sample strictly inside the interval and
	// fails at the samples bracketing it.
	for _, s := range series {
		if s.Time.After(iv.Start) && s.Time.Before(iv.End) && !thresh.Matches(s.Height) {
			t.Errorf("threshold fails at %s (height %v) inside the interval", s.Time, s.Height)
		}
	}
	before := sampleAt(t, series, iv.Start.Add(-time.Minute))
	if thresh.Matches(before.Height) {
		t.Errorf("threshold holds at %s, just before the interval start", before.Time)
	}
	atEnd := sampleAt(t, series, iv.End)
	if thresh.Matches(atEnd.Height) {
		t.Errorf("threshold holds at the closing sample %s", atEnd.Time)
	}
}

func sampleAt(t *testing.T, series pchip.Series, at time.Time) pchip.Sample {
	t.Helper()
	for _, s := range series {
		if s.Time.Equal(at) {
			return s
		}
	}
	t.Fatalf("no sample at %s", at)
	return pchip.Sample{}
}

func TestFindAllMatchingDropsTrailingOpen(t *testing.T) {
	series := humpSeries(t)

	// The unbounded threshold matches everywhere, so the single window never
	// closes and is dropped.
	ivs := Find(series, Threshold{}, Options{})
	if len(ivs) != 0 {
		t.Errorf("got %d intervals, wanted 0", len(ivs))
	}

	// With the compatibility knob the window is emitted, closed at the final
	// sample.
	ivs = Find(series, Threshold{}, Options{IncludeTrailingOpen: true})
	if len(ivs) != 1 {
		t.Fatalf("got %d intervals, wanted 1", len(ivs))
	}
	want := Interval{Start: series[0].Time, End: series[len(series)-1].Time}
	if diff := cmp.Diff(want, ivs[0]); diff != "" {
		t.Errorf("wrong interval (-want,+got):\n%s", diff)
	}
}

func TestFindTwoHumps(t *testing.T) {
	preds := noaa.Predictions{
		{Time: noaa.Time(t0), Height: 1.0, Type: noaa.LowTide},
		{Time: noaa.Time(t0.Add(6 * time.Hour)), Height: 9.0, Type: noaa.HighTide},
		{Time: noaa.Time(t0.Add(12 * time.Hour)), Height: 1.0, Type: noaa.LowTide},
		{Time: noaa.Time(t0.Add(18 * time.Hour)), Height: 9.0, Type: noaa.HighTide},
		{Time: noaa.Time(t0.Add(24 * time.Hour)), Height: 1.0, Type: noaa.LowTide},
	}
	spl, err := pchip.New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series := spl.Resample(time.Minute)

	ivs := Find(series, Threshold{Low: ptr(5.0)}, Options{})
	if len(ivs) != 2 {
		t.Fatalf("got %d intervals, wanted 2", len(ivs))
	}
	for i := 1; i < len(ivs); i++ {
		if !ivs[i-1].End.Before(ivs[i].Start) {
			t.Errorf("intervals %s and %s overlap or touch", ivs[i-1], ivs[i])
		}
		if !ivs[i-1].Start.Before(ivs[i].Start) {
			t.Errorf("intervals out of order: %s then %s", ivs[i-1], ivs[i])
		}
	}
}

func TestFindEmptySeries(t *testing.T) {
	if ivs := Find(nil, Threshold{}, Options{}); len(ivs) != 0 {
		t.Errorf("got %d intervals from an empty series, wanted 0", len(ivs))
	}
}

func TestClipToDaylight(t *testing.T) {
	at := func(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }
	events := sunset.SunEvents{
		{Time: at(6), Event: sunset.Sunrise},
		{Time: at(18), Event: sunset.Sunset},
		{Time: at(30), Event: sunset.Sunrise},
		{Time: at(42), Event: sunset.Sunset},
	}

	ivs := []Interval{
		// Straddles sunset on day one.
		{Start: at(10), End: at(20)},
		// Entirely in the dark.
		{Start: at(20), End: at(24)},
		// Entirely inside day two's daylight.
		{Start: at(31), End: at(33)},
	}

	got := ClipToDaylight(ivs, events)
	want := []Interval{
		{Start: at(10), End: at(18)},
		{Start: at(31), End: at(33)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong clipped intervals (-want,+got):\n%s", diff)
	}
}
