package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yegors/glideplan/internal/config"
	"github.com/yegors/glideplan/internal/planner"
	"github.com/yegors/glideplan/internal/polar"
	"github.com/yegors/glideplan/internal/thermals"
	"github.com/yegors/glideplan/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	thermalService *thermals.Service
	gliderPolar    *polar.Polar
	config         *config.Config
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(thermalService *thermals.Service, gliderPolar *polar.Polar, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		thermalService: thermalService,
		gliderPolar:    gliderPolar,
		config:         config,
		logger:         logger.Named("api-handler"),
	}
}

// RoutePoint is a position in a route request.
type RoutePoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	AltM float64 `json:"alt_m,omitempty"`
}

// RouteRequest is the body of POST /route.
type RouteRequest struct {
	Start         RoutePoint `json:"start"`
	Goal          RoutePoint `json:"goal"`
	ArrivalFloorM *float64   `json:"arrival_floor_m,omitempty"`
	MacCreadyMS   *float64   `json:"maccready_ms,omitempty"`
}

// RouteResponse bundles the plan with the nodes it runs over so clients
// can draw the route without a second request.
type RouteResponse struct {
	Plan  *planner.RoutePlan      `json:"plan"`
	Nodes map[string]planner.Node `json:"nodes"`
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetGrid handles GET /api/v1/grid: the scored thermal grid for the
// configured area.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	cells, err := h.thermalService.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("Failed to build grid snapshot", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to build grid snapshot")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(cells),
		"cells": cells,
	})
}

// GetThermals handles GET /api/v1/thermals: the current candidate set,
// optionally re-thresholded via min_score and top_k query parameters.
func (h *Handler) GetThermals(w http.ResponseWriter, r *http.Request) {
	cands, err := h.thermalService.Candidates(r.Context())
	if err != nil {
		h.logger.Error("Failed to select thermal candidates", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to select thermal candidates")
		return
	}

	if v := r.URL.Query().Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid min_score: %q", v))
			return
		}
		// Candidates carry no score; refilter at the cell level instead.
		cells, err := h.thermalService.Snapshot(r.Context())
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "failed to build grid snapshot")
			return
		}
		keep := make(map[string]bool, len(cells))
		for _, c := range cells {
			if c.Score >= minScore {
				keep[fmt.Sprintf("T%d", c.ID)] = true
			}
		}
		filtered := cands[:0]
		for _, c := range cands {
			if keep[c.ID] {
				filtered = append(filtered, c)
			}
		}
		cands = filtered
	}

	if v := r.URL.Query().Get("top_k"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil || topK < 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid top_k: %q", v))
			return
		}
		if topK < len(cands) {
			cands = cands[:topK]
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(cands),
		"candidates": cands,
	})
}

// PlanRoute handles POST /api/v1/route: build the corridor graph from the
// current snapshot and run the time-optimal search.
func (h *Handler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Start.Lat == 0 && req.Start.Lon == 0 {
		h.writeError(w, http.StatusBadRequest, "start position is required")
		return
	}
	if req.Goal.Lat == 0 && req.Goal.Lon == 0 {
		h.writeError(w, http.StatusBadRequest, "goal position is required")
		return
	}
	if req.Start.AltM <= 0 {
		h.writeError(w, http.StatusBadRequest, "start altitude must be positive")
		return
	}

	floorM := h.config.Planner.ArrivalFloorM
	if req.ArrivalFloorM != nil {
		if *req.ArrivalFloorM < 0 {
			h.writeError(w, http.StatusBadRequest, "arrival floor must be >= 0")
			return
		}
		floorM = *req.ArrivalFloorM
	}

	macCready := h.config.Planner.MacCreadyMS
	if req.MacCreadyMS != nil {
		if *req.MacCreadyMS < 0 {
			h.writeError(w, http.StatusBadRequest, "MacCready setting must be >= 0")
			return
		}
		macCready = *req.MacCreadyMS
	}

	cands, err := h.thermalService.Candidates(r.Context())
	if err != nil {
		h.logger.Error("Failed to select thermal candidates", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to select thermal candidates")
		return
	}

	cands = thermals.CorridorFilter(cands,
		req.Start.Lat, req.Start.Lon,
		req.Goal.Lat, req.Goal.Lon,
		h.config.Area.CorridorHalfWidthM,
	)

	start := planner.Node{ID: "START", Lat: req.Start.Lat, Lon: req.Start.Lon}
	goal := planner.Node{ID: "GOAL", Lat: req.Goal.Lat, Lon: req.Goal.Lon}
	graph := thermals.BuildGraph(start, goal, cands, h.config.Planner.MaxLegM)

	pl, err := planner.New(h.gliderPolar, h.thermalService.Sampler(), planner.Config{
		MacCreadyMS:  macCready,
		StepLengthM:  h.config.Planner.StepLengthM,
		BucketWidthM: h.config.Planner.BucketWidthM,
	}, h.logger)
	if err != nil {
		h.logger.Error("Failed to create planner", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create planner")
		return
	}

	plan, err := pl.PlanRoute(graph, start.ID, goal.ID, req.Start.AltM, floorM)
	if err != nil {
		if errors.Is(err, planner.ErrNoRoute) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("Route search failed", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "route search failed")
		return
	}

	h.logger.Info("Route planned",
		logger.Int("candidates", len(cands)),
		logger.Int("path_len", len(plan.Path)),
		logger.Float64("total_time_s", plan.TotalTimeS),
	)
	h.writeJSON(w, http.StatusOK, RouteResponse{Plan: plan, Nodes: graph.Nodes})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
