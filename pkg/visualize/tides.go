// Package visualize renders the interpolated tide curve as an SVG, with the
// threshold band and the extracted windows marked.
package visualize

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa/pchip"
	"github.com/spencer-p/tidecal/pkg/window"
)

const (
	width  = 1200
	height = 300

	// Heights outside this range are clamped to the drawing area.
	minTide = -2.0
	maxTide = 8.0
)

type Tidal struct {
	series    pchip.Series
	intervals []window.Interval
	thresh    window.Threshold
}

func NewTidal(series pchip.Series, intervals []window.Interval, thresh window.Threshold) *Tidal {
	return &Tidal{
		series:    series,
		intervals: intervals,
		thresh:    thresh,
	}
}

func (img *Tidal) Encode(w io.Writer) (int, error) {
	var n int
	var err error
	io := func(nextn int, nexterr error) {
		n += nextn
		if nexterr != nil {
			err = nexterr
		}
	}

	if len(img.series) < 2 {
		return 0, fmt.Errorf("not enough samples to draw")
	}

	io(fmt.Fprintf(w, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height))

	// Shade the extracted windows first so everything else draws on top.
	for _, iv := range img.intervals {
		x1 := img.timeToX(iv.Start)
		x2 := img.timeToX(iv.End)
		io(fmt.Fprintf(w, `<rect class="window" fill="lightgreen" opacity="0.4" x="%d" y="0" width="%d" height="%d"/>`,
			x1, x2-x1, height))
	}

	// Threshold bounds as horizontal markers.
	if img.thresh.Low != nil {
		io(fmt.Fprintf(w, `<line class="low_bound" stroke="black" x1="0" y1="%d" x2="%d" y2="%d"/>`,
			tideHeightToY(*img.thresh.Low), width, tideHeightToY(*img.thresh.Low)))
	}
	if img.thresh.High != nil {
		io(fmt.Fprintf(w, `<line class="high_bound" stroke="black" x1="0" y1="%d" x2="%d" y2="%d"/>`,
			tideHeightToY(*img.thresh.High), width, tideHeightToY(*img.thresh.High)))
	}

	// The tide curve itself. The series has far more samples than pixels,
	// so step through it to land roughly one point per pixel column.
	io(fmt.Fprintf(w, `<polyline fill="none" stroke="steelblue" stroke-width="2" points="`))
	step := len(img.series) / width
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(img.series); i += step {
		s := img.series[i]
		io(fmt.Fprintf(w, "%d,%d ", img.timeToX(s.Time), tideHeightToY(s.Height)))
	}
	last := img.series[len(img.series)-1]
	io(fmt.Fprintf(w, `%d,%d"/>`, img.timeToX(last.Time), tideHeightToY(last.Height)))

	io(fmt.Fprintf(w, `</svg>`))
	return n, err
}

// timeToX maps t onto the horizontal axis spanning the whole series.
func (img *Tidal) timeToX(t time.Time) int {
	start := img.series[0].Time
	end := img.series[len(img.series)-1].Time
	frac := float64(t.Sub(start)) / float64(end.Sub(start))
	return int(math.Round(frac * width))
}

func tideHeightToY(h float64) int {
	if h < minTide {
		h = minTide
	}
	if h > maxTide {
		h = maxTide
	}
	// SVG y grows downward.
	frac := (h - minTide) / (maxTide - minTide)
	return int(math.Round((1 - frac) * height))
}
