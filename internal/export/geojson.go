package export

import (
	"encoding/json"

	"github.com/icalado/geo-snap-pro/internal/track"
)

type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   geoJSONGeom    `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONGeom struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type geoJSONDoc struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// GeoJSON renders the track as one LineString feature (lon, lat, alt;
// zero when absent) followed by one Point feature per photo marker.
func GeoJSON(log *track.TrackLog) ([]byte, error) {
	if log == nil || len(log.Points) == 0 {
		return nil, ErrNothingToExport
	}

	line := make([][]float64, 0, len(log.Points))
	for _, p := range log.Points {
		line = append(line, []float64{p.Lon, p.Lat, altitudeOrZero(p)})
	}

	features := []geoJSONFeature{{
		Type:     "Feature",
		Geometry: geoJSONGeom{Type: "LineString", Coordinates: line},
		Properties: map[string]any{
			"track_id":   log.ID,
			"started_at": log.StartedAt,
			"ended_at":   log.EndedAt,
		},
	}}

	for _, m := range log.Photos {
		features = append(features, geoJSONFeature{
			Type:     "Feature",
			Geometry: geoJSONGeom{Type: "Point", Coordinates: []float64{m.Lon, m.Lat}},
			Properties: map[string]any{
				"marker_id": m.ID,
				"url":       m.URL,
				"taken_at":  m.T,
				"note":      m.Note,
			},
		})
	}

	return json.MarshalIndent(geoJSONDoc{Type: "FeatureCollection", Features: features}, "", "  ")
}
