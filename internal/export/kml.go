package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/icalado/geo-snap-pro/internal/track"
)

type kmlDoc struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Styles     []kmlStyle     `xml:"Style"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlStyle struct {
	ID        string        `xml:"id,attr"`
	LineStyle *kmlLineStyle `xml:"LineStyle,omitempty"`
}

type kmlLineStyle struct {
	Color string `xml:"color"`
	Width int    `xml:"width"`
}

type kmlPlacemark struct {
	Name        string         `xml:"name"`
	Description *kmlCDATA      `xml:"description,omitempty"`
	StyleURL    string         `xml:"styleUrl,omitempty"`
	LineString  *kmlLineString `xml:"LineString,omitempty"`
	Point       *kmlPoint      `xml:"Point,omitempty"`
}

type kmlCDATA struct {
	Body string `xml:",cdata"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

const trackStyleID = "trackPath"

// KML renders a styled path plus one marker placemark per photo with a
// rich description (thumbnail, timestamp, note).
func KML(log *track.TrackLog) ([]byte, error) {
	if log == nil || len(log.Points) == 0 {
		return nil, ErrNothingToExport
	}

	var coords strings.Builder
	for i, p := range log.Points {
		if i > 0 {
			coords.WriteByte(' ')
		}
		fmt.Fprintf(&coords, "%.6f,%.6f,%.1f", p.Lon, p.Lat, altitudeOrZero(p))
	}

	placemarks := []kmlPlacemark{{
		Name:     "Track " + log.ID,
		StyleURL: "#" + trackStyleID,
		LineString: &kmlLineString{
			Tessellate:  1,
			Coordinates: coords.String(),
		},
	}}

	for _, m := range log.Photos {
		desc := fmt.Sprintf(
			`<img src=%q width="240"/><br/>Taken: %s<br/>%s`,
			m.URL,
			time.UnixMilli(m.T).UTC().Format(time.RFC3339),
			m.Note,
		)
		placemarks = append(placemarks, kmlPlacemark{
			Name:        "Photo " + m.ID,
			Description: &kmlCDATA{Body: desc},
			Point: &kmlPoint{
				Coordinates: fmt.Sprintf("%.6f,%.6f,0", m.Lon, m.Lat),
			},
		})
	}

	doc := kmlDoc{
		Xmlns: "http://www.opengis.net/kml/2.2",
		Document: kmlDocument{
			Name: "Track " + log.ID,
			Styles: []kmlStyle{{
				ID:        trackStyleID,
				LineStyle: &kmlLineStyle{Color: "ff0000ff", Width: 4},
			}},
			Placemarks: placemarks,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
