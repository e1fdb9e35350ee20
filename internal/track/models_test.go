package track

import "testing"

func TestOpen(t *testing.T) {
	var nilLog *TrackLog
	if nilLog.Open() {
		t.Fatalf("nil log must not be open")
	}
	l := &TrackLog{ID: "a"}
	if !l.Open() {
		t.Fatalf("log without end time must be open")
	}
	l.EndedAt = 42
	if l.Open() {
		t.Fatalf("ended log must not be open")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := &TrackLog{
		ID:     "a",
		Points: []TrackPoint{{Lat: 1, Lon: 2, T: 3}},
		Photos: []PhotoMarker{{ID: "p1"}},
	}
	c := l.Clone()
	c.Points[0].Lat = 99
	c.Photos[0].ID = "changed"
	c.RemoteID = "r1"

	if l.Points[0].Lat != 1 || l.Photos[0].ID != "p1" || l.RemoteID != "" {
		t.Fatalf("clone mutation leaked into original: %+v", l)
	}
}
