// Package ical renders extracted tide windows as an iCalendar document.
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/spencer-p/tidecal/pkg/window"
)

// Export builds a calendar with one VEVENT per interval, in interval order.
// Event times are tagged GMT; the interpolated timestamps are naive and the
// NOAA predictions they come from are GMT by request.
func Export(ivs []window.Interval, stationName string, th window.Threshold) *ics.Calendar {
	cal := ics.NewCalendar()

	summary := fmt.Sprintf("%s %s", stationName, th.String())
	for _, iv := range ivs {
		event := cal.AddEvent(uid(iv))
		event.SetDtStampTime(time.Now().UTC())
		event.SetStartAt(iv.Start.UTC())
		event.SetEndAt(iv.End.UTC())
		event.SetSummary(summary)
	}

	return cal
}

// Write serializes the calendar to w.
func Write(w io.Writer, cal *ics.Calendar) error {
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// Parse reads a serialized calendar back into events. It exists for
// round-trip verification and for callers that post-process exported files.
func Parse(r io.Reader) ([]*ics.VEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, err
	}
	return cal.Events(), nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) ([]*ics.VEvent, error) {
	return Parse(strings.NewReader(s))
}

func uid(iv window.Interval) string {
	return fmt.Sprintf("%d-%d@tidecal", iv.Start.Unix(), iv.End.Unix())
}
