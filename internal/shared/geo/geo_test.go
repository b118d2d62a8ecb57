package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Kathmandu (27.7172, 85.3240) to Patan (27.6644, 85.3188) ~ 5-7 km
	d := HaversineKm(27.7172, 85.3240, 27.6644, 85.3188)
	if d < 4 || d > 8 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Position{Lat: 27.7172, Lon: 85.3240}
	b := Position{Lat: 27.70, Lon: 85.30}
	if math.Abs(a.DistanceKm(b)-b.DistanceKm(a)) > 1e-9 {
		t.Fatalf("distance not symmetric")
	}
	if a.DistanceKm(a) != 0 {
		t.Fatalf("expected zero self distance")
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 27.6, MinLon: 85.2, MaxLat: 27.8, MaxLon: 85.4}
	if !box.Contains(Position{Lat: 27.7172, Lon: 85.3240}) {
		t.Fatalf("expected point inside box")
	}
	if box.Contains(Position{Lat: 28.0, Lon: 85.3240}) {
		t.Fatalf("expected point outside box")
	}
}
