// Package polyline implements the Google encoded polyline format used by
// routing providers (GraphHopper emits precision-5 polylines when
// points_encoded is on) and by CellWay's saved-route storage, which keeps
// geometries encoded rather than as coordinate arrays.
// Format reference: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
)

// precision-5: five decimal places, roughly one meter of resolution.
const scale = 1e5

// LatLng is one vertex of an encoded geometry.
type LatLng struct {
	Lat float64
	Lon float64
}

// Decode converts an encoded polyline into its vertices. Malformed
// trailing bytes terminate the decode at the last complete vertex.
func Decode(encoded string) []LatLng {
	var (
		points   []LatLng
		lat, lon int
		i        int
	)

	for i < len(encoded) {
		dLat, ok := decodeChunk(encoded, &i)
		if !ok {
			break
		}
		dLon, ok := decodeChunk(encoded, &i)
		if !ok {
			break
		}

		lat += dLat
		lon += dLon
		points = append(points, LatLng{
			Lat: float64(lat) / scale,
			Lon: float64(lon) / scale,
		})
	}

	return points
}

// decodeChunk reads one zigzag-encoded delta starting at *i and advances
// *i past it. ok is false when the input ends mid-value.
func decodeChunk(encoded string, i *int) (int, bool) {
	var result, shift int

	for {
		if *i >= len(encoded) {
			return 0, false
		}
		b := int(encoded[*i]) - 63
		*i++

		result |= (b & 0x1f) << shift
		if b < 0x20 {
			break
		}
		shift += 5
	}

	if result&1 != 0 {
		return ^(result >> 1), true
	}
	return result >> 1, true
}

// Encode converts vertices into an encoded polyline.
func Encode(points []LatLng) string {
	var (
		buf      []byte
		lat, lon int
	)

	for _, p := range points {
		nextLat := int(math.Round(p.Lat * scale))
		nextLon := int(math.Round(p.Lon * scale))

		buf = appendChunk(buf, nextLat-lat)
		buf = appendChunk(buf, nextLon-lon)

		lat = nextLat
		lon = nextLon
	}

	return string(buf)
}

func appendChunk(buf []byte, delta int) []byte {
	v := delta << 1
	if delta < 0 {
		v = ^v
	}

	for v >= 0x20 {
		buf = append(buf, byte(0x20|(v&0x1f))+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}

// LengthMeters returns the great-circle length of the geometry.
func LengthMeters(points []LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversine(points[i-1], points[i])
	}
	return total
}

const earthRadiusMeters = 6371000

func haversine(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
