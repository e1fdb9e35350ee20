// Package export serializes a finished track log into interchange
// formats. Every writer is a pure function of the log: identical input
// yields byte-identical output.
package export

import (
	"errors"

	"github.com/icalado/geo-snap-pro/internal/track"
)

// ErrNothingToExport is returned for a log with zero points.
var ErrNothingToExport = errors.New("nothing to export")

// Format names one supported document type.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatKML     Format = "kml"
	FormatGPX     Format = "gpx"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Marshal renders the log in the named format.
func Marshal(format Format, log *track.TrackLog) ([]byte, error) {
	switch format {
	case FormatGeoJSON:
		return GeoJSON(log)
	case FormatKML:
		return KML(log)
	case FormatGPX:
		return GPX(log)
	default:
		return nil, ErrUnknownFormat
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	case FormatGPX:
		return "application/gpx+xml"
	default:
		return "application/octet-stream"
	}
}

func altitudeOrZero(p track.TrackPoint) float64 {
	if p.AltitudeM != nil {
		return *p.AltitudeM
	}
	return 0
}
