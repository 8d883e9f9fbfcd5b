package chemistry

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/ctessum/geom/proj"
)

// Fallback position near the lake centre for stations that cannot be located.
const (
	DefaultLon = -112.5
	DefaultLat = 41.1
)

// NAD83 / UTM zone 12N (EPSG:26912) and geographic WGS84.
const (
	utmZone12NDef = "+proj=utm +zone=12 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"
	wgs84Def      = "+proj=longlat +datum=WGS84 +no_defs"
)

// Positions outside this box are treated as conversion failures.
const (
	minPlausibleLon = -114.5
	maxPlausibleLon = -111.5
	minPlausibleLat = 40.0
	maxPlausibleLat = 42.5
)

// RawSite is one site record of the station feed before normalization.
type RawSite struct {
	ID   string
	Name string

	// Geometry is a GeoJSON point, either as an object or JSON-encoded as a string.
	Geometry json.RawMessage

	// Easting and Northing are UTM 12N metres, as numbers or numeric strings.
	Easting  any
	Northing any

	Readings []RawReading
}

var utmToGeographic = sync.OnceValues(func() (proj.Transformer, error) {
	src, err := proj.Parse(utmZone12NDef)
	if err != nil {
		return nil, err
	}
	dst, err := proj.Parse(wgs84Def)
	if err != nil {
		return nil, err
	}
	return src.NewTransform(dst)
})

// NormalizeCoordinates resolves the position of a raw site. Embedded point
// geometry wins over projected coordinates; when neither resolves, the station
// is placed at the default position and tagged accordingly.
func NormalizeCoordinates(raw RawSite) Station {
	station := Station{
		ID:   raw.ID,
		Name: raw.Name,
	}
	if station.Name == "" {
		station.Name = raw.ID
	}

	if lon, lat, ok := pointFromGeometry(raw.Geometry); ok {
		station.Lon, station.Lat = lon, lat
		station.Source = CoordinateSourceGeometry
		return station
	}

	if lon, lat, ok := pointFromUTM(raw.Easting, raw.Northing); ok {
		station.Lon, station.Lat = lon, lat
		station.Source = CoordinateSourceProjected
		return station
	}

	station.Lon, station.Lat = DefaultLon, DefaultLat
	station.Source = CoordinateSourceDefault
	return station
}

type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func pointFromGeometry(raw json.RawMessage) (lon, lat float64, ok bool) {
	if len(raw) == 0 {
		return 0, 0, false
	}

	payload := []byte(raw)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		payload = []byte(encoded)
	}

	var g pointGeometry
	if err := json.Unmarshal(payload, &g); err != nil {
		return 0, 0, false
	}
	if g.Type != "Point" || len(g.Coordinates) != 2 {
		return 0, 0, false
	}

	lon, lat = g.Coordinates[0], g.Coordinates[1]
	if !isFinite(lon) || !isFinite(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	return lon, lat, true
}

func pointFromUTM(easting, northing any) (lon, lat float64, ok bool) {
	e, ok := toFloat(easting)
	if !ok {
		return 0, 0, false
	}
	n, ok := toFloat(northing)
	if !ok {
		return 0, 0, false
	}

	transform, err := utmToGeographic()
	if err != nil {
		return 0, 0, false
	}

	lon, lat, err = transform(e, n)
	if err != nil || !isFinite(lon) || !isFinite(lat) {
		return 0, 0, false
	}
	if lon < minPlausibleLon || lon > maxPlausibleLon || lat < minPlausibleLat || lat > maxPlausibleLat {
		return 0, 0, false
	}
	return lon, lat, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
