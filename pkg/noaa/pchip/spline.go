// Package pchip finds a continuous curve of tide from sparse hi/lo points.
//
// The fit is a Piecewise Cubic Hermite Interpolating Polynomial with
// Fritsch-Carlson tangents. Unlike a natural cubic spline it never
// overshoots: between two knots the curve stays within the knot heights,
// which matches how real tide moves between an extreme and the next.
package pchip

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa"
)

// ErrInsufficientData is returned when fewer than two predictions are
// supplied; a cubic fit needs at least two knots.
var ErrInsufficientData = errors.New("pchip: need at least two predictions")

// Segment is one cubic piece linking a tide event to the next. It is
// undefined outside [Start, End].
type Segment struct {
	Start, End time.Time
	y0, y1     float64
	a, b, c, d float64
}

// A Spline is a slice of segments linked together to form the full curve.
type Spline []Segment

// Sample is one point of a resampled curve.
type Sample struct {
	Time   time.Time
	Height float64
}

// Series is a regularly spaced time series of samples.
type Series []Sample

// New fits a spline through the given predictions. The predictions must be
// strictly increasing in time.
func New(preds noaa.Predictions) (Spline, error) {
	if len(preds) < 2 {
		return nil, ErrInsufficientData
	}
	if !preds.TimeSorted() {
		return nil, fmt.Errorf("pchip: predictions are not strictly time sorted")
	}

	n := len(preds)
	h := make([]float64, n-1)     // knot spacing, seconds
	delta := make([]float64, n-1) // secant slopes
	for i := 0; i < n-1; i++ {
		h[i] = xrel(preds[i].T(), preds[i+1].T())
		delta[i] = (float64(preds[i+1].Height) - float64(preds[i].Height)) / h[i]
	}

	m := tangents(h, delta)

	curves := make([]Segment, n-1)
	for i := 0; i < n-1; i++ {
		curves[i] = segmentBetween(
			preds[i].T(), float64(preds[i].Height),
			preds[i+1].T(), float64(preds[i+1].Height),
			m[i], m[i+1])
	}
	return curves, nil
}

// tangents computes the Fritsch-Carlson knot derivatives that keep the
// interpolant monotone between knots.
func tangents(h, delta []float64) []float64 {
	n := len(h) + 1
	m := make([]float64, n)

	if n == 2 {
		// Two knots degenerate to a straight line.
		m[0], m[1] = delta[0], delta[0]
		return m
	}

	// Interior knots: weighted harmonic mean of adjacent secants, zero at
	// local extrema (sign change or flat secant).
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			m[i] = 0
			continue
		}
		w1 := 2*h[i] + h[i-1]
		w2 := h[i] + 2*h[i-1]
		m[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
	}

	m[0] = edgeTangent(h[0], h[1], delta[0], delta[1])
	m[n-1] = edgeTangent(h[n-2], h[n-3], delta[n-2], delta[n-3])
	return m
}

// edgeTangent is the one-sided three-point estimate for an endpoint, clamped
// to preserve shape near the boundary.
func edgeTangent(h0, h1, d0, d1 float64) float64 {
	t := ((2*h0+h1)*d0 - h0*d1) / (h0 + h1)
	if t*d0 <= 0 {
		return 0
	}
	if d0*d1 < 0 && math.Abs(t) > 3*math.Abs(d0) {
		return 3 * d0
	}
	return t
}

// segmentBetween converts the Hermite form (heights and tangents at both
// ends) to polynomial coefficients relative to the segment start.
func segmentBetween(time1 time.Time, h1 float64, time2 time.Time, h2 float64, m1, m2 float64) Segment {
	h := xrel(time1, time2)
	delta := (h2 - h1) / h
	return Segment{
		Start: time1,
		End:   time2,
		y0:    h1,
		y1:    h2,
		a:     (m1 + m2 - 2*delta) / (h * h),
		b:     (3*delta - 2*m1 - m2) / h,
		c:     m1,
		d:     h1,
	}
}

// Eval computes the height of the curve at t, or NaN if t is outside the
// fitted range.
func (s Spline) Eval(t time.Time) float64 {
	left, right := 0, len(s)
	for left < right {
		mid := left + (right-left)/2
		if t.Before(s[mid].Start) {
			right = mid
		} else if t.After(s[mid].End) {
			left = mid + 1
		} else {
			return s[mid].Eval(t)
		}
	}
	// Function not defined.
	return math.NaN()
}

func (c Segment) Eval(t time.Time) float64 {
	if t.Before(c.Start) || t.After(c.End) {
		return math.NaN()
	}
	// Knots are preserved exactly rather than through arithmetic.
	if t.Equal(c.Start) {
		return c.y0
	}
	if t.Equal(c.End) {
		return c.y1
	}
	x := xrel(c.Start, t)
	return c.a*x*x*x + c.b*x*x + c.c*x + c.d
}

// Resample evaluates the spline at a fixed step from the first knot through
// the last, both inclusive when the step divides the range evenly.
func (s Spline) Resample(step time.Duration) Series {
	if len(s) < 1 {
		return nil
	}
	start := s[0].Start
	end := s[len(s)-1].End

	result := make(Series, 0, int(end.Sub(start)/step)+1)
	for t := start; !t.After(end); t = t.Add(step) {
		result = append(result, Sample{Time: t, Height: s.Eval(t)})
	}
	return result
}

// xrel computes an x coordinate for t that is relative to origin.
// This reduces large floating point errors by moving x coordinates closer to
// the "origin" (just the start of a particular segment).
func xrel(origin time.Time, t time.Time) float64 {
	return float64(t.Unix() - origin.Unix())
}

func (c Segment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	_, err := fmt.Fprintf(&buf, `{"start":%d,"end":%d,"a":%g,"b":%g,"c":%g,"d":%g}`,
		c.Start.Unix(), c.End.Unix(),
		c.a, c.b, c.c, c.d)
	return buf.Bytes(), err
}
