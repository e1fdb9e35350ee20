package export

import (
	"bytes"
	"encoding/xml"
	"time"

	"github.com/icalado/geo-snap-pro/internal/track"
)

type gpxDoc struct {
	XMLName   xml.Name `xml:"gpx"`
	Version   string   `xml:"version,attr"`
	Creator   string   `xml:"creator,attr"`
	Xmlns     string   `xml:"xmlns,attr"`
	Waypoints []gpxWpt `xml:"wpt"`
	Track     gpxTrk   `xml:"trk"`
}

type gpxTrk struct {
	Name    string    `xml:"name"`
	Segment gpxTrkSeg `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Points []gpxTrkPt `xml:"trkpt"`
}

type gpxTrkPt struct {
	Lat       float64 `xml:"lat,attr"`
	Lon       float64 `xml:"lon,attr"`
	Elevation float64 `xml:"ele"`
	Time      string  `xml:"time"`
}

type gpxWpt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
	Desc string  `xml:"desc,omitempty"`
	Link *gpxLnk `xml:"link,omitempty"`
	Time string  `xml:"time"`
}

type gpxLnk struct {
	Href string `xml:"href,attr"`
}

// GPX renders a trk/trkseg path with one wpt per photo marker.
func GPX(log *track.TrackLog) ([]byte, error) {
	if log == nil || len(log.Points) == 0 {
		return nil, ErrNothingToExport
	}

	points := make([]gpxTrkPt, 0, len(log.Points))
	for _, p := range log.Points {
		points = append(points, gpxTrkPt{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Elevation: altitudeOrZero(p),
			Time:      time.UnixMilli(p.T).UTC().Format(time.RFC3339),
		})
	}

	var waypoints []gpxWpt
	for _, m := range log.Photos {
		waypoints = append(waypoints, gpxWpt{
			Lat:  m.Lat,
			Lon:  m.Lon,
			Name: "Photo " + m.ID,
			Desc: m.Note,
			Link: &gpxLnk{Href: m.URL},
			Time: time.UnixMilli(m.T).UTC().Format(time.RFC3339),
		})
	}

	doc := gpxDoc{
		Version:   "1.1",
		Creator:   "geo-snap-pro",
		Xmlns:     "http://www.topografix.com/GPX/1/1",
		Waypoints: waypoints,
		Track: gpxTrk{
			Name:    "Track " + log.ID,
			Segment: gpxTrkSeg{Points: points},
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
