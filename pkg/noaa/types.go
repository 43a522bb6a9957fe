package noaa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const predTimeFormat = "2006-01-02 15:04"

// Prediction holds a single tide event prediction.
type Prediction struct {
	// GMT time of tide prediction
	Time Time `json:"t"`
	// Height in the unit system of the query
	Height Height `json:"v"`
	// High or Low tide, "H" or "L" when encoded
	Type Tide `json:"type"`
}

// Verify the custom types can be unmarshaled
var _ json.Unmarshaler = &Time{}
var _ json.Unmarshaler = new(Height)
var _ json.Unmarshaler = new(Tide)

// Predictions is a time series of Prediction, ascending by time.
type Predictions []Prediction

// noaaResult is the data type returned by the NOAA API.
type noaaResult struct {
	Predictions Predictions `json:"predictions"`
}

// T is a convenience accessor for a prediction's time.
func (p Prediction) T() time.Time {
	return time.Time(p.Time)
}

// TimeSorted reports whether the series has strictly increasing timestamps,
// which is required by the interpolator and expected of the NOAA API.
func (p Predictions) TimeSorted() bool {
	for i := 1; i < len(p); i++ {
		if !p[i-1].T().Before(p[i].T()) {
			return false
		}
	}
	return true
}

// ParseError reports a value from the API that could not be interpreted. The
// NOAA API returns heights and timestamps as strings, so a bad record
// surfaces here rather than in the JSON decoder proper.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("noaa: cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type Time time.Time

func (t *Time) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return &ParseError{Field: "time", Value: string(buf), Err: err}
	}
	// The API serves GMT because every query asks for GMT.
	parsed, err := time.ParseInLocation(predTimeFormat, s, time.UTC)
	if err != nil {
		return &ParseError{Field: "time", Value: s, Err: err}
	}
	*t = Time(parsed)
	return nil
}

type Height float64

func (h *Height) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return &ParseError{Field: "height", Value: string(buf), Err: err}
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &ParseError{Field: "height", Value: s, Err: err}
	}
	*h = Height(parsed)
	return nil
}

type Tide uint

const (
	HighTide Tide = iota
	LowTide
)

func (t Tide) Valid() bool {
	return t == HighTide || t == LowTide
}

func (t *Tide) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return &ParseError{Field: "tide type", Value: string(buf), Err: err}
	}
	switch s {
	case "H":
		*t = HighTide
	case "L":
		*t = LowTide
	default:
		return &ParseError{Field: "tide type", Value: s, Err: fmt.Errorf("want H or L")}
	}
	return nil
}

func (t Tide) String() string {
	switch t {
	case HighTide:
		return "H"
	case LowTide:
		return "L"
	default:
		return "invalid"
	}
}

func (p Prediction) String() string {
	return fmt.Sprintf("{t: %s, v: %f, type: %s}",
		p.T().Format(time.RFC822),
		p.Height,
		p.Type.String())
}
