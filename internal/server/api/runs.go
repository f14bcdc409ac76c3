// Package api provides HTTP API handlers for run history.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
)

// RunsHandler handles HTTP requests for run resources.
type RunsHandler struct {
	store *store.Store
}

// NewRunsHandler creates a new RunsHandler with the given store.
func NewRunsHandler(s *store.Store) *RunsHandler {
	return &RunsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests.
// Expected paths: /api/runs, /api/runs/{id}, /api/runs/{id}/results
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/runs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/results"); ok {
		h.results(w, r, id)
		return
	}
	h.get(w, r, path)
}

// Response types

type roiResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type runResponse struct {
	ID          string      `json:"id"`
	VideoPath   string      `json:"video_path"`
	Methods     []string    `json:"methods"`
	ROI         roiResponse `json:"roi"`
	TotalFrames int         `json:"total_frames"`
	StartedAt   string      `json:"started_at"`
	FinishedAt  string      `json:"finished_at,omitempty"`
}

type methodResultResponse struct {
	Method         string   `json:"method"`
	FramesSurvived int      `json:"frames_survived"`
	MeanScore      *float64 `json:"mean_score,omitempty"`
	MeanIoU        *float64 `json:"mean_iou,omitempty"`
}

func toRunResponse(run *store.Run) runResponse {
	resp := runResponse{
		ID:          run.ID,
		VideoPath:   run.VideoPath,
		Methods:     run.Methods,
		ROI:         roiResponse{X: run.ROI.Min.X, Y: run.ROI.Min.Y, W: run.ROI.Dx(), H: run.ROI.Dy()},
		TotalFrames: run.TotalFrames,
		StartedAt:   run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.FinishedAt != nil {
		resp.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func (h *RunsHandler) list(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.Runs().List()
	if err != nil {
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RunsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	run, err := h.store.Runs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (h *RunsHandler) results(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Runs().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	results, err := h.store.Runs().MethodResults(id)
	if err != nil {
		http.Error(w, "Failed to get results", http.StatusInternalServerError)
		return
	}

	resp := make([]methodResultResponse, 0, len(results))
	for _, mr := range results {
		resp = append(resp, methodResultResponse{
			Method:         mr.Method,
			FramesSurvived: mr.FramesSurvived,
			MeanScore:      mr.MeanScore,
			MeanIoU:        mr.MeanIoU,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
