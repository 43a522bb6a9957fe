package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency",
			Subsystem: "tidecal",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0, 8.0, 16.0, 32.0},
		},
		[]string{"verb", "path", "code"},
	)
	noaaFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "noaa_fetches",
			Subsystem: "tidecal",
			Help:      "Outbound NOAA API calls by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)
	userRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "user_requests",
			Subsystem: "tidecal",
			Help:      "Requests split by whether the session carries a known user.",
		},
		[]string{"known"},
	)
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		noaaFetches,
		userRequests,
	)
}

func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

// ObserveFetch records one outbound NOAA API call. code is the HTTP status
// or "error" when the transport failed.
func ObserveFetch(endpoint, code string) {
	noaaFetches.With(prometheus.Labels{
		"endpoint": endpoint,
		"code":     code,
	}).Inc()
}

// ObserveUserRequest counts a request from a session. id is the session's
// user ID value, which may be nil for anonymous visitors.
func ObserveUserRequest(id interface{}) {
	known := "false"
	if id != nil {
		known = "true"
	}
	userRequests.With(prometheus.Labels{"known": known}).Inc()
}

func LatencyHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := time.Now()
		verb := r.Method
		path := ""
		if r.URL != nil {
			path = r.URL.Path
		}

		// Defer metric observing. Any panics in next are reported as 500 errors
		// and then re-thrown.
		defer func() {
			if err := recover(); err != nil {
				ObserveRequestLatency(verb, path, "500", time.Since(t).Seconds())
				panic(err)
			}
			code := getStatusCode(w)
			ObserveRequestLatency(verb, path, code, time.Since(t).Seconds())
		}()

		next.ServeHTTP(w, r)
	})
}

func getStatusCode(w http.ResponseWriter) string {
	statusFields, ok := w.Header()["Status-Code"]
	if !ok {
		// Unset, will be set to 200 by stdlib.
		return "200"
	}
	if len(statusFields) < 1 {
		// Not normal behavior.
		return "0"
	}
	return statusFields[0]
}
