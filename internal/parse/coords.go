package parse

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Point is a longitude/latitude pair.
type Point struct {
	Lon float64
	Lat float64
}

// ParseCoordinates reads the comma separated LOC string. SFpark lists longitude
// before latitude in every pair. pts selects how many pairs are read; any count
// other than 1 or 2 yields no points.
func ParseCoordinates(raw string, pts int) ([]Point, error) {
	if pts != 1 && pts != 2 {
		return nil, nil
	}

	fields := strings.Split(raw, ",")
	if len(fields) < 2*pts {
		return nil, eris.Errorf("coordinate string %q has %d values, need %d", raw, len(fields), 2*pts)
	}

	points := make([]Point, 0, pts)
	for i := 0; i < pts; i++ {
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[2*i]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid longitude in %q", raw)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[2*i+1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid latitude in %q", raw)
		}
		points = append(points, Point{Lon: lon, Lat: lat})
	}
	return points, nil
}
