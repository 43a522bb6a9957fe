// Package handlers serves the tide window pipeline over HTTP.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/spencer-p/tidecal/pkg/cache"
	"github.com/spencer-p/tidecal/pkg/ical"
	"github.com/spencer-p/tidecal/pkg/noaa"
	"github.com/spencer-p/tidecal/pkg/noaa/pchip"
	"github.com/spencer-p/tidecal/pkg/sunset"
	"github.com/spencer-p/tidecal/pkg/visualize"
	"github.com/spencer-p/tidecal/pkg/window"
)

const (
	day          = 24 * time.Hour
	defaultRange = 7 * day

	// Predictions for a fixed date range never change, but cap cache life
	// so relative defaults (begin=today) roll over.
	cacheTTL = 23 * time.Hour
)

// Config carries the handlers' dependencies. DB may be nil, in which case
// preferences live only in the session cookie.
type Config struct {
	Prefix string
	Client *noaa.Client
	DB     *gorm.DB
}

func Register(r *mux.Router, cfg Config) {
	if cfg.Client == nil {
		cfg.Client = noaa.DefaultClient
	}

	r.Handle("/", makeIndexHandler())
	r.Handle("/api/v1/intervals", makeServeIntervals(cfg))
	r.Handle("/api/v1/calendar.ics", makeServeCalendar(cfg))
	r.Handle("/api/v1/tides.svg", makeServeTideImage(cfg))
	r.HandleFunc("/config", makeConfigHandler(cfg))
}

// request is one parsed pipeline invocation.
type request struct {
	query    noaa.PredictionQuery
	thresh   window.Threshold
	daylight bool
	openEnd  bool
}

// parseRequest reads pipeline parameters from the URL, falling back to the
// visitor's saved preferences for station and thresholds.
func parseRequest(r *http.Request, prefs prefs) (request, error) {
	var req request

	req.query.Station = r.FormValue("station")
	if req.query.Station == "" {
		req.query.Station = prefs.Station
	}
	if req.query.Station == "" {
		return req, fmt.Errorf("station is required")
	}

	var err error
	req.query.Start, err = dateOrDefault(r.FormValue("begin"), time.Now().UTC())
	if err != nil {
		return req, fmt.Errorf("bad begin date: %w", err)
	}
	req.query.End, err = dateOrDefault(r.FormValue("end"), req.query.Start.Add(defaultRange))
	if err != nil {
		return req, fmt.Errorf("bad end date: %w", err)
	}
	if req.query.End.Before(req.query.Start) {
		return req, fmt.Errorf("end date %s before begin date %s",
			req.query.End.Format(noaa.TimeFmt), req.query.Start.Format(noaa.TimeFmt))
	}

	req.query.Units = r.FormValue("units")
	switch req.query.Units {
	case "", noaa.Metric, noaa.English:
	default:
		return req, fmt.Errorf("unknown unit system %q", req.query.Units)
	}

	req.thresh = prefs.Threshold()
	if s := r.FormValue("low"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, fmt.Errorf("bad low threshold: %w", err)
		}
		req.thresh.Low = &f
	}
	if s := r.FormValue("high"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, fmt.Errorf("bad high threshold: %w", err)
		}
		req.thresh.High = &f
	}

	req.daylight = formBool(r, "daylight")
	req.openEnd = formBool(r, "open_end")
	return req, nil
}

func dateOrDefault(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseInLocation(noaa.TimeFmt, s, time.UTC)
}

func formBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.FormValue(key))
	return err == nil && b
}

// result is everything the pipeline produces for one request.
type result struct {
	station   noaa.StationInfo
	series    pchip.Series
	intervals []window.Interval
	thresh    window.Threshold
}

// run executes the whole pipeline: fetch, interpolate to one minute,
// extract windows, label with station metadata, and optionally clip to
// daylight. Any stage error aborts the run with no partial output.
func run(ctx context.Context, client *noaa.Client, req request) (result, error) {
	var res result
	res.thresh = req.thresh

	preds, err := client.GetPredictions(ctx, &req.query)
	if err != nil {
		return res, fmt.Errorf("fetching predictions: %w", err)
	}

	spline, err := pchip.New(preds)
	if err != nil {
		return res, err
	}
	res.series = spline.Resample(time.Minute)

	res.intervals = window.Find(res.series, req.thresh, window.Options{
		IncludeTrailingOpen: req.openEnd,
	})

	res.station, err = client.GetStationInfo(ctx, req.query.Station)
	if err != nil {
		return res, fmt.Errorf("fetching station info: %w", err)
	}

	if req.daylight {
		start := res.series[0].Time
		end := res.series[len(res.series)-1].Time
		events := sunset.GetSunEvents(start, end.Sub(start)+day, sunset.PlaceFor(res.station))
		res.intervals = window.ClipToDaylight(res.intervals, events)
	}

	return res, nil
}

func makeServeIntervals(cfg Config) http.Handler {
	timeCache := cache.NewTimed(cacheTTL)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL)

		// cache based on method and URL, which should encapsulate the query
		key := fmt.Sprintf("%s %s", r.Method, r.URL)
		if cached, ok := timeCache.Get(key); ok {
			w.Header().Add("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		req, err := parseRequest(r, loadPrefs(r, cfg.DB))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Bad request: %v", err)
			return
		}

		res, err := run(r.Context(), cfg.Client, req)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Failed to get data: %+v", err)
			log.Printf("Failed to get data: %+v", err)
			return
		}

		// duplicate the http response onto a buffer for the cache
		var toCache bytes.Buffer
		mw := io.MultiWriter(w, &toCache)

		if r.FormValue("o") == "json" {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if err := json.NewEncoder(mw).Encode(res.intervals); err != nil {
				log.Printf("Failed to encode JSON result: %+v", err)
			}
		} else {
			w.Header().Add("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			for i, iv := range res.intervals {
				fmt.Fprintf(mw, "%s", iv.String())
				if i+1 < len(res.intervals) {
					fmt.Fprintf(mw, "\n")
				}
			}
		}

		timeCache.Set(key, toCache.Bytes())
	})
}

func makeServeCalendar(cfg Config) http.Handler {
	timeCache := cache.NewTimed(cacheTTL)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL)

		req, err := parseRequest(r, loadPrefs(r, cfg.DB))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Bad request: %v", err)
			return
		}

		filename := fmt.Sprintf("tidecal_%s_%s_%s.ics",
			req.query.Station,
			req.query.Start.Format(noaa.TimeFmt),
			req.query.End.Format(noaa.TimeFmt))

		key := fmt.Sprintf("%s %s", r.Method, r.URL)
		if cached, ok := timeCache.Get(key); ok {
			serveICS(w, filename, cached)
			return
		}

		res, err := run(r.Context(), cfg.Client, req)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Failed to get data: %+v", err)
			log.Printf("Failed to get data: %+v", err)
			return
		}

		cal := ical.Export(res.intervals, res.station.Name, res.thresh)
		body := []byte(cal.Serialize())
		serveICS(w, filename, body)
		timeCache.Set(key, body)
	})
}

func serveICS(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Add("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Add("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func makeServeTideImage(cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL)

		req, err := parseRequest(r, loadPrefs(r, cfg.DB))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Bad request: %v", err)
			return
		}

		res, err := run(r.Context(), cfg.Client, req)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Failed to get data: %+v", err)
			log.Printf("Failed to get data: %+v", err)
			return
		}

		img := visualize.NewTidal(res.series, res.intervals, res.thresh)
		w.Header().Add("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		if _, err := img.Encode(w); err != nil {
			log.Printf("Failed to encode tide image: %v", err)
		}
	})
}

func makeIndexHandler() http.Handler {
	const usage = `tidecal: tide window calendars from NOAA predictions

GET /api/v1/intervals?station=<id>&begin=YYYYMMDD&end=YYYYMMDD&low=<f>&high=<f>
GET /api/v1/calendar.ics?station=<id>&begin=YYYYMMDD&end=YYYYMMDD&low=<f>&high=<f>
GET /api/v1/tides.svg?station=<id>&...

Optional: units=metric|english, daylight=true, open_end=true, o=json
`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL)
		w.Header().Add("Content-Type", "text/plain")
		fmt.Fprint(w, usage)
	})
}
