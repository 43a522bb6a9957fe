package pchip

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa"
)

// rise and fall over twelve hours: low 1.0, high 9.0, low 1.0.
func humpPredictions() noaa.Predictions {
	tstart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return noaa.Predictions{{
		Time:   noaa.Time(tstart),
		Height: 1.0,
		Type:   noaa.LowTide,
	}, {
		Time:   noaa.Time(tstart.Add(6 * time.Hour)),
		Height: 9.0,
		Type:   noaa.HighTide,
	}, {
		Time:   noaa.Time(tstart.Add(12 * time.Hour)),
		Height: 1.0,
		Type:   noaa.LowTide,
	}}
}

func TestNewInsufficientData(t *testing.T) {
	for _, preds := range []noaa.Predictions{nil, humpPredictions()[:1]} {
		_, err := New(preds)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("New(%d preds) = %v, wanted ErrInsufficientData", len(preds), err)
		}
	}
}

func TestNewUnsorted(t *testing.T) {
	preds := humpPredictions()
	preds[0], preds[1] = preds[1], preds[0]
	if _, err := New(preds); err == nil {
		t.Error("expected an error for unsorted predictions")
	}
}

func TestKnotPreservation(t *testing.T) {
	preds := humpPredictions()
	spl, err := New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range preds {
		if got, want := spl.Eval(p.T()), float64(p.Height); got != want {
			t.Errorf("Eval(%s) = %v, wanted exactly %v", p.T(), got, want)
		}
	}
}

func TestResampleCoverage(t *testing.T) {
	preds := humpPredictions()
	spl, err := New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series := spl.Resample(time.Minute)

	// 12 hours at one minute spacing, both endpoints inclusive.
	if got, want := len(series), 12*60+1; got != want {
		t.Fatalf("got %d samples, wanted %d", got, want)
	}
	if !series[0].Time.Equal(preds[0].T()) {
		t.Errorf("series starts at %s, wanted %s", series[0].Time, preds[0].T())
	}
	if last := series[len(series)-1]; !last.Time.Equal(preds[len(preds)-1].T()) {
		t.Errorf("series ends at %s, wanted %s", last.Time, preds[len(preds)-1].T())
	}
	for i := 1; i < len(series); i++ {
		if got := series[i].Time.Sub(series[i-1].Time); got != time.Minute {
			t.Fatalf("sample %d is %s after its predecessor, wanted 1m", i, got)
		}
	}

	// Resampled knots keep their original heights exactly.
	for _, p := range preds {
		i := int(p.T().Sub(series[0].Time) / time.Minute)
		if got, want := series[i].Height, float64(p.Height); got != want {
			t.Errorf("sample at knot %s = %v, wanted exactly %v", p.T(), got, want)
		}
	}
}

func TestNoOvershoot(t *testing.T) {
	preds := humpPredictions()
	spl, err := New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series := spl.Resample(time.Minute)

	const eps = 1e-9
	for _, s := range series {
		if s.Height < 1.0-eps || s.Height > 9.0+eps {
			t.Errorf("sample at %s is %v, outside the knot range [1, 9]", s.Time, s.Height)
		}
	}

	// The curve actually climbs to the high and comes back down.
	mid := series[len(series)/2]
	if mid.Height < 8 {
		t.Errorf("midpoint height %v, expected near the high of 9", mid.Height)
	}
}

func TestMonotoneBetweenKnots(t *testing.T) {
	preds := humpPredictions()
	spl, err := New(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series := spl.Resample(time.Minute)

	const eps = 1e-9
	rising := series[:len(series)/2]
	for i := 1; i < len(rising); i++ {
		if rising[i].Height < rising[i-1].Height-eps {
			t.Fatalf("curve dips at %s while rising to the high", rising[i].Time)
		}
	}
	falling := series[len(series)/2:]
	for i := 1; i < len(falling); i++ {
		if falling[i].Height > falling[i-1].Height+eps {
			t.Fatalf("curve climbs at %s while falling to the low", falling[i].Time)
		}
	}
}

func TestEvalOutsideRange(t *testing.T) {
	spl, err := New(humpPredictions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := spl[0].Start.Add(-time.Minute)
	after := spl[len(spl)-1].End.Add(time.Minute)
	if v := spl.Eval(before); !math.IsNaN(v) {
		t.Errorf("Eval before range = %v, wanted NaN", v)
	}
	if v := spl.Eval(after); !math.IsNaN(v) {
		t.Errorf("Eval after range = %v, wanted NaN", v)
	}
}

func ExampleSpline_Resample() {
	tstart := time.Date(2021, time.April, 3, 10, 30, 0, 0, time.UTC)
	preds := noaa.Predictions{{
		Time:   noaa.Time(tstart),
		Height: 0,
	}, {
		Time:   noaa.Time(tstart.Add(10 * time.Minute)),
		Height: 10,
	}}
	spl, _ := New(preds)
	for _, s := range spl.Resample(2 * time.Minute) {
		fmt.Println(math.Round(s.Height))
	}
	// Output:
	// 0
	// 2
	// 4
	// 6
	// 8
	// 10
}
