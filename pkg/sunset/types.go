package sunset

import (
	"fmt"
	"time"

	"github.com/spencer-p/tidecal/pkg/noaa"
)

// Place is a lat/long coordinate on the Earth.
type Place struct {
	Lat, Long float64
}

// PlaceFor derives a Place from NOAA station metadata.
func PlaceFor(info noaa.StationInfo) Place {
	return Place{Lat: info.Lat, Long: info.Lng}
}

// SunEvents is a time series of SunEvent.
type SunEvents []SunEvent

// SunEvent is a sunrise or sunset event.
type SunEvent struct {
	Time  time.Time
	Event Event
}

func (s *SunEvent) String() string {
	return fmt.Sprintf("%s %s",
		s.Time.Format(time.RFC822),
		func() string {
			if s.Event == Sunrise {
				return "Sunrise"
			} else {
				return "Sunset"
			}
		}())
}

// Event encodes a sunrise or sunset event.
type Event bool

const (
	Sunrise Event = true
	Sunset  Event = false
)
