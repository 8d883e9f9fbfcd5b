package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brinemap/brinemap/internal/api/middleware"
	"github.com/brinemap/brinemap/internal/api/models"
	"github.com/brinemap/brinemap/internal/api/response"
	"github.com/brinemap/brinemap/internal/chemistry"
	"github.com/brinemap/brinemap/internal/heatmap"
	"github.com/brinemap/brinemap/internal/lakedata"
)

const notLoadedDetail = "lake data is still loading"

// LakeHandler serves the reconciled dataset and rendered frames.
type LakeHandler struct {
	store  *lakedata.Store
	logger zerolog.Logger
}

// NewLakeHandler creates a new LakeHandler.
func NewLakeHandler(store *lakedata.Store, logger zerolog.Logger) *LakeHandler {
	return &LakeHandler{store: store, logger: logger}
}

// current returns the loaded context or writes a 503.
func (h *LakeHandler) current(w http.ResponseWriter, r *http.Request) (*lakedata.Context, bool) {
	lc := h.store.Get()
	if lc == nil {
		response.ServiceUnavailable(w, r, notLoadedDetail)
		return nil, false
	}
	return lc, true
}

// ListStations handles GET /v1/stations.
func (h *LakeHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}

	stations := lc.Dataset.Stations()
	out := models.StationList{Stations: make([]models.Station, 0, len(stations))}
	for _, s := range stations {
		out.Stations = append(out.Stations, models.Station{
			ID:               s.ID,
			Name:             s.Name,
			Lon:              s.Lon,
			Lat:              s.Lat,
			CoordinateSource: string(s.Source),
			Region:           string(lc.Renderer.Region(s.ID)),
		})
	}
	response.JSON(w, r, http.StatusOK, out)
}

// ListTimePoints handles GET /v1/timepoints.
func (h *LakeHandler) ListTimePoints(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}

	tps := lc.Dataset.TimePoints()
	out := models.TimePointList{TimePoints: make([]string, len(tps))}
	for i, tp := range tps {
		out.TimePoints[i] = tp.String()
	}
	if len(tps) > 0 {
		out.First = out.TimePoints[0]
		out.Last = out.TimePoints[len(tps)-1]
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetSeries handles GET /v1/series/{variable}.
func (h *LakeHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}
	v, ok := parseVariable(w, r)
	if !ok {
		return
	}

	ds := lc.Dataset
	tps := ds.TimePoints()
	out := models.Series{
		Variable: string(v),
		Unit:     v.Unit(),
		Range:    toRange(ds.Range(v)),
		Points:   make([]models.SeriesPoint, 0, len(tps)),
	}
	for _, tp := range tps {
		point := models.SeriesPoint{TimePoint: tp.String()}
		if v == chemistry.VariableTemperature {
			if t, ok := ds.Temperature(tp); ok {
				point.Value = &t
			}
		} else {
			point.Stations = ds.Snapshot(v, tp)
		}
		out.Points = append(out.Points, point)
	}
	response.JSON(w, r, http.StatusOK, out)
}

// ListRanges handles GET /v1/ranges.
func (h *LakeHandler) ListRanges(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}

	out := models.RangeList{}
	for _, v := range chemistry.Variables() {
		out.Ranges = append(out.Ranges, models.VariableRange{
			Variable: string(v),
			Unit:     v.Unit(),
			Range:    toRange(lc.Dataset.Range(v)),
		})
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetFrame handles GET /v1/frames/{variable}/{timePoint}.
func (h *LakeHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}
	v, ok := parseVariable(w, r)
	if !ok {
		return
	}

	tp, err := chemistry.ParseTimePoint(chi.URLParam(r, "timePoint"))
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "timePoint", Message: "must be YYYY-MM", Code: "INVALID_FORMAT"},
		})
		return
	}

	frame, err := lc.Renderer.Render(r.Context(), v, tp)
	switch {
	case err == nil:
	case errors.Is(err, heatmap.ErrUnknownTimePoint):
		response.NotFound(w, r, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Err(err).
			Msg("frame rendering abandoned")
		response.ServiceUnavailable(w, r, "frame rendering was cancelled")
		return
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("variable", string(v)).
			Stringer("time_point", tp).
			Msg("failed to render frame")
		response.InternalError(w, r, "failed to render frame")
		return
	}

	vp := lc.Renderer.Viewport()
	out := models.Frame{
		Variable:   string(frame.Variable),
		Unit:       frame.Variable.Unit(),
		TimePoint:  frame.TimePoint.String(),
		Range:      toRange(frame.Range),
		Viewport:   models.Viewport{Width: vp.Width, Height: vp.Height, Margin: vp.Margin},
		Simplified: lc.Boundaries.Simplified,
		North:      toRaster(frame.North),
		South:      toRaster(frame.South),
		Markers:    make([]models.Marker, len(frame.Markers)),
	}
	for i, m := range frame.Markers {
		out.Markers[i] = models.Marker{
			StationID: m.StationID,
			Name:      m.Name,
			Region:    string(m.Region),
			X:         m.X,
			Y:         m.Y,
			Value:     m.Value,
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetDataSummary handles GET /v1/warnings.
func (h *LakeHandler) GetDataSummary(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.current(w, r)
	if !ok {
		return
	}

	response.JSON(w, r, http.StatusOK, models.DataSummary{
		SiteStrategy:     lc.SiteStrategy,
		BoundaryStrategy: lc.BoundaryStrategy,
		Synthetic:        lc.Dataset.Synthetic,
		RealDensity:      lc.Dataset.HasRealDensity,
		RealSalinity:     lc.Dataset.HasRealSalinity,
		LoadedAt:         models.Timestamp(lc.LoadedAt),
		Warnings:         toWarnings(lc.Warnings),
	})
}

func parseVariable(w http.ResponseWriter, r *http.Request) (chemistry.Variable, bool) {
	v, err := chemistry.ParseVariable(chi.URLParam(r, "variable"))
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "variable", Message: "must be density, salinity or temperature", Code: "ENUM"},
		})
		return "", false
	}
	return v, true
}

func toRange(dr chemistry.DataRange) models.Range {
	return models.Range{Min: dr.Min, Max: dr.Max}
}

func toRaster(r *heatmap.Raster) *models.Raster {
	if r == nil {
		return nil
	}
	out := &models.Raster{
		Region:   string(r.Region),
		Cols:     r.Cols,
		Rows:     r.Rows,
		CellSize: r.CellSize,
		Values:   make([]*float64, len(r.Values)),
	}
	for i := range r.Values {
		if r.Painted[i] {
			v := r.Values[i]
			out.Values[i] = &v
		}
	}
	return out
}
