package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/spencer-p/tidecal/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.tidesandcurrents.noaa.gov"

	predictionPath = "/api/prod/datagetter"

	// Date format of begin_date and end_date request parameters.
	TimeFmt = "20060102"
)

// Unit systems recognized by the prediction API.
const (
	Metric  = "metric"
	English = "english"
)

// FetchError is returned when a NOAA endpoint responds with a non-success
// status. There is no retry; the error goes straight back to the caller.
type FetchError struct {
	Endpoint   string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("noaa: %s returned status %d", e.Endpoint, e.StatusCode)
}

// PredictionQuery is used to query hi/lo tide predictions at a station in a
// given date window; see Client.GetPredictions.
type PredictionQuery struct {
	Station string
	// Start and End are calendar dates; the API returns predictions for
	// whole days.
	Start time.Time
	End   time.Time
	// Units is Metric or English. Empty means Metric.
	Units string
}

// Client talks to the NOAA tides and currents API. The zero value is not
// usable; construct with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS throttles outbound calls as a courtesy to the public API.
	RPS   float64
	Burst int
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RPS == 0 {
		opts.RPS = 2
	}
	if opts.Burst == 0 {
		opts.Burst = 2
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
	}
}

// DefaultClient queries the production NOAA API with default options.
var DefaultClient = NewClient(Options{})

// GetPredictions retrieves the hi/lo tide predictions described by q. The
// result is ascending by time. A non-2xx response yields a *FetchError and a
// malformed record a *ParseError.
func (c *Client) GetPredictions(ctx context.Context, q *PredictionQuery) (Predictions, error) {
	var result noaaResult
	if err := c.getJSON(ctx, q.url(c.baseURL), predictionPath, &result); err != nil {
		return nil, err
	}
	if !result.Predictions.TimeSorted() {
		return nil, fmt.Errorf("noaa: predictions for station %s are not time sorted", q.Station)
	}
	return result.Predictions, nil
}

// GetPredictions queries the production NOAA API with the default client.
func GetPredictions(ctx context.Context, q *PredictionQuery) (Predictions, error) {
	return DefaultClient.GetPredictions(ctx, q)
}

// getJSON performs a single rate-limited GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, addr, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveFetch(endpoint, "error")
		return err
	}
	defer resp.Body.Close()

	metrics.ObserveFetch(endpoint, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// url builds the full prediction request URL against base.
func (q *PredictionQuery) url(base string) string {
	addr, err := url.Parse(base + predictionPath)
	if err != nil {
		// The base URL is a compile time constant or test server address;
		// neither fails to parse.
		panic(err)
	}
	addr.RawQuery = q.build().Encode()
	return addr.String()
}

func (q *PredictionQuery) build() url.Values {
	units := q.Units
	if units == "" {
		units = Metric
	}
	vals := make(url.Values)
	vals.Add("begin_date", q.Start.Format(TimeFmt))
	vals.Add("end_date", q.End.Format(TimeFmt))
	vals.Add("station", q.Station)
	vals.Add("product", "predictions")
	vals.Add("datum", "MLLW")
	vals.Add("time_zone", "GMT")
	vals.Add("interval", "hilo")
	vals.Add("units", units)
	vals.Add("format", "json")
	return vals
}
