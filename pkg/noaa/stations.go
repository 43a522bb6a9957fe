package noaa

import (
	"context"
	"errors"
	"fmt"
)

const (
	catalogPath     = "/mdapi/prod/webapi/stations.json"
	stationInfoPath = "/mdapi/prod/webapi/stations/%s.json"
)

// ErrMissingStationInfo is returned when the metadata API answers
// successfully but carries no record for the requested station.
var ErrMissingStationInfo = errors.New("noaa: no station info in response")

// StationInfo describes one tide station from the NOAA metadata API.
type StationInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type stationsResult struct {
	Stations []StationInfo `json:"stations"`
}

// ListStations retrieves the full station catalog.
func (c *Client) ListStations(ctx context.Context) ([]StationInfo, error) {
	var result stationsResult
	if err := c.getJSON(ctx, c.baseURL+catalogPath, catalogPath, &result); err != nil {
		return nil, err
	}
	return result.Stations, nil
}

// CountStations reports the number of stations in the catalog.
func (c *Client) CountStations(ctx context.Context) (int, error) {
	stations, err := c.ListStations(ctx)
	if err != nil {
		return 0, err
	}
	return len(stations), nil
}

// GetStationInfo retrieves metadata for a single station. A successful fetch
// with an empty record list yields ErrMissingStationInfo.
func (c *Client) GetStationInfo(ctx context.Context, id string) (StationInfo, error) {
	var result stationsResult
	addr := c.baseURL + fmt.Sprintf(stationInfoPath, id)
	if err := c.getJSON(ctx, addr, "stationinfo", &result); err != nil {
		return StationInfo{}, err
	}
	if len(result.Stations) == 0 {
		return StationInfo{}, fmt.Errorf("station %s: %w", id, ErrMissingStationInfo)
	}
	return result.Stations[0], nil
}
