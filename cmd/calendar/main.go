// Command calendar runs the full pipeline once: fetch predictions for a
// station and date range, interpolate to one minute, extract windows in the
// requested height band, and write the result as an iCalendar file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spencer-p/tidecal/pkg/ical"
	"github.com/spencer-p/tidecal/pkg/noaa"
	"github.com/spencer-p/tidecal/pkg/noaa/pchip"
	"github.com/spencer-p/tidecal/pkg/sunset"
	"github.com/spencer-p/tidecal/pkg/window"
)

func main() {
	var (
		station  = flag.String("station", "", "NOAA station ID (required)")
		begin    = flag.String("begin", "", "begin date, YYYYMMDD (default today)")
		end      = flag.String("end", "", "end date, YYYYMMDD (default begin+7d)")
		units    = flag.String("units", noaa.Metric, "unit system: metric or english")
		low      = flag.String("low", "", "low tide threshold (optional)")
		high     = flag.String("high", "", "high tide threshold (optional)")
		daylight = flag.Bool("daylight", false, "clip windows to daylight hours")
		openEnd  = flag.Bool("open-end", false, "include a window still open at the end of the range")
		out      = flag.String("o", "", "output file (default stdout)")
		timeout  = flag.Duration("timeout", time.Minute, "fetch timeout")
	)
	flag.Parse()

	if *station == "" {
		log.Fatal("-station is required")
	}

	query := noaa.PredictionQuery{
		Station: *station,
		Units:   *units,
	}
	var err error
	query.Start, err = parseDate(*begin, time.Now().UTC())
	if err != nil {
		log.Fatalf("Bad begin date: %v", err)
	}
	query.End, err = parseDate(*end, query.Start.Add(7*24*time.Hour))
	if err != nil {
		log.Fatalf("Bad end date: %v", err)
	}

	thresh := window.Threshold{
		Low:  parseBound(*low),
		High: parseBound(*high),
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	client := noaa.NewClient(noaa.Options{})

	preds, err := client.GetPredictions(ctx, &query)
	if err != nil {
		log.Fatalf("Failed to fetch predictions: %v", err)
	}

	spline, err := pchip.New(preds)
	if err != nil {
		log.Fatalf("Failed to interpolate: %v", err)
	}
	series := spline.Resample(time.Minute)

	intervals := window.Find(series, thresh, window.Options{IncludeTrailingOpen: *openEnd})

	info, err := client.GetStationInfo(ctx, *station)
	if err != nil {
		log.Fatalf("Failed to fetch station info: %v", err)
	}

	if *daylight {
		first := series[0].Time
		last := series[len(series)-1].Time
		events := sunset.GetSunEvents(first, last.Sub(first)+24*time.Hour, sunset.PlaceFor(info))
		intervals = window.ClipToDaylight(intervals, events)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	cal := ical.Export(intervals, info.Name, thresh)
	if err := ical.Write(w, cal); err != nil {
		log.Fatalf("Failed to write calendar: %v", err)
	}

	fmt.Fprintf(os.Stderr, "%d windows for %s (%s)\n", len(intervals), info.Name, thresh)
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseInLocation(noaa.TimeFmt, s, time.UTC)
}

func parseBound(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("Bad threshold %q: %v", s, err)
	}
	return &f
}
