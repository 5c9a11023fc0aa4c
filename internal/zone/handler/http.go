// Package handler exposes zone administration and fleet statistics over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"quakeguard/backend/internal/server/httpx"
	"quakeguard/backend/internal/zone/domain"
	"quakeguard/backend/internal/zone/repository"
)

// Repo is the zone repository contract the handler depends on.
type Repo interface {
	Create(ctx context.Context, z *domain.Zone) error
	GetByID(ctx context.Context, id int64) (*domain.Zone, error)
	GetByCity(ctx context.Context, city string) (*domain.Zone, error)
	List(ctx context.Context, limit, offset int32) ([]*domain.Zone, error)
	Update(ctx context.Context, z *domain.Zone) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListFleetStats(ctx context.Context) ([]*repository.FleetStats, error)
}

// Handler serves zone CRUD and /stats/zones.
type Handler struct {
	repo Repo
}

// NewHandler returns a zone HTTP handler backed by the given repository.
func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

type zoneRequest struct {
	City string `json:"city"`
}

type zoneResponse struct {
	ID   int64  `json:"id"`
	City string `json:"city"`
}

// Create registers a new zone. City names are unique: a duplicate is a 409.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.City = strings.TrimSpace(req.City)
	if req.City == "" {
		httpx.Error(w, http.StatusBadRequest, "city is required")
		return
	}

	existing, err := h.repo.GetByCity(r.Context(), req.City)
	if err != nil {
		h.internalError(w, "create zone", err)
		return
	}
	if existing != nil {
		httpx.Error(w, http.StatusConflict, "zone with this city already exists")
		return
	}

	z := &domain.Zone{City: req.City}
	if err := h.repo.Create(r.Context(), z); err != nil {
		h.internalError(w, "create zone", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, zoneResponse{ID: z.ID, City: z.City})
}

// Get returns one zone by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "zone_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	z, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "get zone", err)
		return
	}
	if z == nil {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	httpx.JSON(w, http.StatusOK, zoneResponse{ID: z.ID, City: z.City})
}

// List returns zones paginated by limit/offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := httpx.QueryInt32(r, "limit", 100)
	offset := httpx.QueryInt32(r, "offset", 0)
	zones, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.internalError(w, "list zones", err)
		return
	}
	out := make([]zoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneResponse{ID: z.ID, City: z.City})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Update renames a zone.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "zone_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.City = strings.TrimSpace(req.City)
	if req.City == "" {
		httpx.Error(w, http.StatusBadRequest, "city is required")
		return
	}

	ok, err := h.repo.Update(r.Context(), &domain.Zone{ID: id, City: req.City})
	if err != nil {
		h.internalError(w, "update zone", err)
		return
	}
	if !ok {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	httpx.JSON(w, http.StatusOK, zoneResponse{ID: id, City: req.City})
}

// Delete removes a zone. Its sensors and their measurements cascade.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "zone_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	ok, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.internalError(w, "delete zone", err)
		return
	}
	if !ok {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fleetStatsResponse struct {
	ZoneID          int64      `json:"zone_id"`
	City            string     `json:"city"`
	TotalSensors    int64      `json:"total_misurators"`
	ActiveSensors   int64      `json:"active_misurators"`
	LastMeasurement *time.Time `json:"last_misuration"`
}

// FleetStats returns per-zone sensor counts and last-measurement timestamps.
func (h *Handler) FleetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.ListFleetStats(r.Context())
	if err != nil {
		h.internalError(w, "fleet stats", err)
		return
	}
	out := make([]fleetStatsResponse, 0, len(stats))
	for _, s := range stats {
		resp := fleetStatsResponse{
			ZoneID:        s.ZoneID,
			City:          s.City,
			TotalSensors:  s.TotalSensors,
			ActiveSensors: s.ActiveSensors,
		}
		if s.LastMeasurement.Valid {
			t := s.LastMeasurement.Time
			resp.LastMeasurement = &t
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("zone: %s: %v", op, err)
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
