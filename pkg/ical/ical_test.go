package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/spencer-p/tidecal/pkg/window"
)

func ptr(f float64) *float64 { return &f }

func TestRoundTrip(t *testing.T) {
	t0 := time.Date(2024, time.January, 1, 3, 24, 0, 0, time.UTC)
	ivs := []window.Interval{
		{Start: t0, End: t0.Add(90 * time.Minute)},
		{Start: t0.Add(12 * time.Hour), End: t0.Add(14 * time.Hour)},
		{Start: t0.Add(25 * time.Hour), End: t0.Add(26 * time.Hour)},
	}
	thresh := window.Threshold{Low: ptr(0.5), High: ptr(2)}

	cal := Export(ivs, "Santa Cruz", thresh)
	events, err := ParseString(cal.Serialize())
	if err != nil {
		t.Fatalf("failed to parse exported calendar: %v", err)
	}
	if len(events) != len(ivs) {
		t.Fatalf("got %d events, wanted %d", len(events), len(ivs))
	}

	for i, ev := range events {
		start, err := ev.GetStartAt()
		if err != nil {
			t.Fatalf("event %d has no start: %v", i, err)
		}
		end, err := ev.GetEndAt()
		if err != nil {
			t.Fatalf("event %d has no end: %v", i, err)
		}
		if !start.Equal(ivs[i].Start) {
			t.Errorf("event %d starts at %s, wanted %s", i, start, ivs[i].Start)
		}
		if !end.Equal(ivs[i].End) {
			t.Errorf("event %d ends at %s, wanted %s", i, end, ivs[i].End)
		}
	}
}

func TestSummaryText(t *testing.T) {
	t0 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	ivs := []window.Interval{{Start: t0, End: t0.Add(time.Hour)}}

	cal := Export(ivs, "Santa Cruz", window.Threshold{Low: ptr(5)})
	serialized := cal.Serialize()
	if !strings.Contains(serialized, "SUMMARY:Santa Cruz min 5 max none") {
		t.Errorf("serialized calendar is missing the summary:\n%s", serialized)
	}
	if !strings.Contains(serialized, "BEGIN:VEVENT") {
		t.Errorf("serialized calendar has no VEVENT:\n%s", serialized)
	}
}

func TestExportEmpty(t *testing.T) {
	cal := Export(nil, "Santa Cruz", window.Threshold{})
	events, err := ParseString(cal.Serialize())
	if err != nil {
		t.Fatalf("failed to parse exported calendar: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, wanted 0", len(events))
	}
}
