package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	a := Position{Lat: 47.3769, Lon: 8.5417}
	if d := DistanceMeters(a, a); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}
	// One thousandth of a degree of latitude is about 111 m.
	b := Position{Lat: 47.3779, Lon: 8.5417}
	d := DistanceMeters(a, b)
	if math.Abs(d-111.2) > 0.5 {
		t.Fatalf("unexpected distance %f", d)
	}
	if back := DistanceMeters(b, a); math.Abs(back-d) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", d, back)
	}
}
