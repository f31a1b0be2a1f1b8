package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/bibbank/claimrisk/internal/domain/port"
)

const earthRadiusMiles = 3958.8

// HaversineMiles returns the great-circle distance between a and b.
func HaversineMiles(a, b port.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ParseCoordinates parses a "lat,lon" pair. Free-text addresses and
// non-finite or out-of-range values report false.
func ParseCoordinates(s string) (port.Coordinates, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return port.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return port.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return port.Coordinates{}, false
	}
	if !finite(lat) || !finite(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return port.Coordinates{}, false
	}
	return port.Coordinates{Lat: lat, Lon: lon}, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
