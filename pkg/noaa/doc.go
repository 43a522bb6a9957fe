// Package noaa implements queries to NOAA to retrieve tide prediction data.
// Tide data is requested as hi/lo events per station (see PredictionQuery). A
// successful query returns a list of predictions with time, height, and
// whether it is high or low. All times are GMT and all heights are relative
// to the MLLW datum.
//
// The package also covers the NOAA metadata API: the full station catalog and
// per-station info used to label exported events.
package noaa
