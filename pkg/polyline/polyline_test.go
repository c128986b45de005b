package polyline

import (
	"math"
	"testing"
)

func TestDecode_ReferenceVector(t *testing.T) {
	// Worked example from the format documentation.
	points := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	want := []LatLng{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}

	if len(points) != len(want) {
		t.Fatalf("expected %d vertices, got %d", len(want), len(points))
	}
	for i := range want {
		if !latLngEqual(points[i], want[i], 1e-5) {
			t.Errorf("vertex %d: expected %+v, got %+v", i, want[i], points[i])
		}
	}
}

func TestEncode_ReferenceVector(t *testing.T) {
	encoded := Encode([]LatLng{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	})

	if encoded != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Errorf("unexpected encoding: %q", encoded)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		points []LatLng
	}{
		{
			name: "Back Bay to Fenway",
			points: []LatLng{
				{Lat: 42.35055, Lon: -71.07738},
				{Lat: 42.34678, Lon: -71.08447},
				{Lat: 42.34251, Lon: -71.09285},
				{Lat: 42.33973, Lon: -71.09741},
			},
		},
		{
			name: "crosses the antimeridian neighborhood",
			points: []LatLng{
				{Lat: -17.53562, Lon: 179.99112},
				{Lat: -17.54015, Lon: -179.99853},
			},
		},
		{
			name:   "single vertex",
			points: []LatLng{{Lat: 42.336687, Lon: -71.095762}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := Decode(Encode(tt.points))
			if len(decoded) != len(tt.points) {
				t.Fatalf("round-trip: expected %d vertices, got %d", len(tt.points), len(decoded))
			}
			for i := range tt.points {
				if !latLngEqual(decoded[i], tt.points[i], 1e-5) {
					t.Errorf("vertex %d lost precision: expected %+v, got %+v", i, tt.points[i], decoded[i])
				}
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	if got := Decode(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	full := Encode([]LatLng{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
	})

	// Chop mid-value: decoding stops at the last complete vertex.
	points := Decode(full[:len(full)-1])
	if len(points) != 1 {
		t.Errorf("expected 1 complete vertex from truncated input, got %d", len(points))
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := Encode(nil); got != "" {
		t.Errorf("expected empty string for nil input, got %q", got)
	}
}

func TestLengthMeters(t *testing.T) {
	tests := []struct {
		name      string
		points    []LatLng
		want      float64
		tolerance float64
	}{
		{
			name:   "empty",
			points: nil,
			want:   0,
		},
		{
			name:   "single vertex",
			points: []LatLng{{Lat: 42.0, Lon: -71.0}},
			want:   0,
		},
		{
			name: "one degree of latitude",
			points: []LatLng{
				{Lat: 0, Lon: 0},
				{Lat: 1, Lon: 0},
			},
			want:      111195,
			tolerance: 10,
		},
		{
			name: "segments accumulate",
			points: []LatLng{
				{Lat: 0, Lon: 0},
				{Lat: 0.5, Lon: 0},
				{Lat: 1, Lon: 0},
			},
			want:      111195,
			tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LengthMeters(tt.points)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("expected ~%.0fm (±%.0f), got %.0fm", tt.want, tt.tolerance, got)
			}
		})
	}
}

func latLngEqual(a, b LatLng, tolerance float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tolerance && math.Abs(a.Lon-b.Lon) <= tolerance
}

func BenchmarkDecode(b *testing.B) {
	encoded := Encode([]LatLng{
		{Lat: 42.35055, Lon: -71.07738},
		{Lat: 42.34678, Lon: -71.08447},
		{Lat: 42.34251, Lon: -71.09285},
		{Lat: 42.33973, Lon: -71.09741},
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Decode(encoded)
	}
}
