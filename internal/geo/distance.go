package geo

import "math"

// earthRadiusKm is the IUGG mean earth radius.
const earthRadiusKm = 6371.0088

// Point is a WGS84 coordinate pair.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// HaversineKm returns the great-circle distance between two points in
// kilometres.
func HaversineKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to one decimal place for display.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
