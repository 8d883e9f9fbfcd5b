package models

// Station is a monitoring station with its resolved position.
type Station struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Lon              float64 `json:"lon"`
	Lat              float64 `json:"lat"`
	CoordinateSource string  `json:"coordinateSource"`
	Region           string  `json:"region"`
}

// StationList is the response of the stations endpoint.
type StationList struct {
	Stations []Station `json:"stations"`
}

// TimePointList lists every time point in ascending order.
type TimePointList struct {
	TimePoints []string `json:"timePoints"`
	First      string   `json:"first"`
	Last       string   `json:"last"`
}

// SeriesPoint holds the values of one time point, keyed by station ID.
// Temperature series carry the lake-wide Value instead.
type SeriesPoint struct {
	TimePoint string             `json:"timePoint"`
	Stations  map[string]float64 `json:"stations,omitempty"`
	Value     *float64           `json:"value,omitempty"`
}

// Series is the full history of one variable.
type Series struct {
	Variable string        `json:"variable"`
	Unit     string        `json:"unit"`
	Range    Range         `json:"range"`
	Points   []SeriesPoint `json:"points"`
}

// Range is a color-scale domain.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VariableRange is the range of one variable.
type VariableRange struct {
	Variable string `json:"variable"`
	Unit     string `json:"unit"`
	Range
}

// RangeList is the response of the ranges endpoint.
type RangeList struct {
	Ranges []VariableRange `json:"ranges"`
}

// Raster is a region grid. Values are row-major; unpainted cells are null.
type Raster struct {
	Region   string     `json:"region"`
	Cols     int        `json:"cols"`
	Rows     int        `json:"rows"`
	CellSize float64    `json:"cellSize"`
	Values   []*float64 `json:"values"`
}

// Marker is a projected station position.
type Marker struct {
	StationID string   `json:"stationId"`
	Name      string   `json:"name"`
	Region    string   `json:"region"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Value     *float64 `json:"value,omitempty"`
}

// Viewport is the pixel area frames are drawn into.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// Frame is one rendered (variable, time point) selection.
type Frame struct {
	Variable   string   `json:"variable"`
	Unit       string   `json:"unit"`
	TimePoint  string   `json:"timePoint"`
	Range      Range    `json:"range"`
	Viewport   Viewport `json:"viewport"`
	Simplified bool     `json:"simplifiedBoundary"`
	North      *Raster  `json:"north"`
	South      *Raster  `json:"south"`
	Markers    []Marker `json:"markers"`
}

// Warning is a non-fatal data problem.
type Warning struct {
	Source   string `json:"source"`
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message"`
}

// DataSummary describes where the current data came from.
type DataSummary struct {
	SiteStrategy     string    `json:"siteStrategy"`
	BoundaryStrategy string    `json:"boundaryStrategy"`
	Synthetic        bool      `json:"synthetic"`
	RealDensity      bool      `json:"realDensity"`
	RealSalinity     bool      `json:"realSalinity"`
	LoadedAt         Timestamp `json:"loadedAt"`
	Warnings         []Warning `json:"warnings"`
}
