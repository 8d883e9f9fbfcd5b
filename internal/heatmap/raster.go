package heatmap

import (
	"context"
	"math"

	"github.com/brinemap/brinemap/internal/boundary"
)

// DefaultCellSize is the edge of one raster cell in viewport units.
const DefaultCellSize = 5

// Raster is the grid of interpolated values of one region. Cells outside the
// region are left unpainted, which is distinct from a painted zero.
type Raster struct {
	Region   boundary.Region `json:"region"`
	Cols     int             `json:"cols"`
	Rows     int             `json:"rows"`
	CellSize float64         `json:"cellSize"`
	Values   []float64       `json:"values"`
	Painted  []bool          `json:"painted"`
}

func newRaster(region boundary.Region, cols, rows int, cellSize float64) *Raster {
	return &Raster{
		Region:   region,
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		Values:   make([]float64, cols*rows),
		Painted:  make([]bool, cols*rows),
	}
}

// At returns the value of a cell and whether it was painted.
func (r *Raster) At(col, row int) (float64, bool) {
	if col < 0 || row < 0 || col >= r.Cols || row >= r.Rows {
		return 0, false
	}
	i := row*r.Cols + col
	return r.Values[i], r.Painted[i]
}

// PaintedCount returns the number of painted cells.
func (r *Raster) PaintedCount() int {
	n := 0
	for _, p := range r.Painted {
		if p {
			n++
		}
	}
	return n
}

func (r *Raster) paint(col, row int, v float64) {
	i := row*r.Cols + col
	r.Values[i] = v
	r.Painted[i] = true
}

// Rasterizer walks the viewport grid and fills one raster per region.
type Rasterizer struct {
	cellSize     float64
	interpolator *Interpolator
}

// NewRasterizer creates a rasterizer. A non-positive cell size means
// DefaultCellSize.
func NewRasterizer(cellSize float64, interpolator *Interpolator) *Rasterizer {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if interpolator == nil {
		interpolator = NewInterpolator(DefaultInterpolationConfig())
	}
	return &Rasterizer{cellSize: cellSize, interpolator: interpolator}
}

// Rasterize fills the north and south rasters. Each cell centre is inverse
// projected and tested against the region boundaries; cells of a region
// without samples stay unpainted. The context is checked between rows.
func (r *Rasterizer) Rasterize(
	ctx context.Context,
	proj *Projection,
	set *boundary.Set,
	samples map[boundary.Region][]Sample,
) (north, south *Raster, err error) {
	vp := proj.Viewport()
	cols := int(math.Ceil(vp.Width / r.cellSize))
	rows := int(math.Ceil(vp.Height / r.cellSize))

	north = newRaster(boundary.RegionNorth, cols, rows, r.cellSize)
	south = newRaster(boundary.RegionSouth, cols, rows, r.cellSize)
	targets := []*Raster{north, south}

	for row := 0; row < rows; row++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		y := (float64(row) + 0.5) * r.cellSize
		for col := 0; col < cols; col++ {
			x := (float64(col) + 0.5) * r.cellSize
			pt, ok := proj.Inverse(x, y)
			if !ok {
				continue
			}
			for _, target := range targets {
				regionSamples := samples[target.Region]
				if len(regionSamples) == 0 || !set.Contains(target.Region, pt) {
					continue
				}
				v, err := r.interpolator.Estimate(x, y, regionSamples)
				if err != nil {
					continue
				}
				target.paint(col, row, v)
				break
			}
		}
	}

	return north, south, nil
}
