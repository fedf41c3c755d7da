package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/fileseries/internal/app"
)

const maxBodyBytes = 1 << 20

// createRequest mirrors the body of POST /series.
type createRequest struct {
	Files            []string `json:"files"`
	Manifest         string   `json:"manifest"`
	IgnoreReaderTime bool     `json:"ignore_reader_time"`
}

// fetchRequest mirrors the body of POST /series/{id}/fetch.
type fetchRequest struct {
	Times []float64 `json:"times"`
}

type listResponse struct {
	Series []service.SeriesView `json:"series"`
}

type windowResponse struct {
	Index int       `json:"index"`
	Times []float64 `json:"times"`
}

// SeriesHandler serves the per-series routes.
type SeriesHandler struct {
	deps Dependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps Dependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

// HandleCreate handles POST /series.
func (h *SeriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	view, err := h.deps.CreateSeries(r.Context(), service.SeriesSpec{
		Files:            req.Files,
		Manifest:         strings.TrimSpace(req.Manifest),
		IgnoreReaderTime: req.IgnoreReaderTime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/series/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleList handles GET /series.
func (h *SeriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{Series: h.deps.List(r.Context())})
}

// HandleGet handles GET /series/{id}.
func (h *SeriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRemove handles DELETE /series/{id}.
func (h *SeriesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTimeline handles GET /series/{id}/timeline.
func (h *SeriesHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Timeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleDescribe handles POST /series/{id}/describe.
func (h *SeriesHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleFetch handles POST /series/{id}/fetch.
func (h *SeriesHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.Fetch(r.Context(), r.PathValue("id"), req.Times)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleWindow handles GET /series/{id}/window?index=N&t=...
// Times may repeat the t parameter or be comma-separated.
func (h *SeriesHandler) HandleWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: index: %w", ErrBadRequest, err))
		return
	}
	times, err := parseTimes(q["t"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	window, err := h.deps.Window(r.Context(), r.PathValue("id"), index, times)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windowResponse{Index: index, Times: window})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func parseTimes(values []string) ([]float64, error) {
	var out []float64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: time %q", ErrBadRequest, part)
			}
			out = append(out, t)
		}
	}
	return out, nil
}
