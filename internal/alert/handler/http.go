// Package handler exposes alert reads over HTTP. Alerts are created only by
// the stream processor; this surface is read-only.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"quakeguard/backend/internal/alert/domain"
	"quakeguard/backend/internal/server/httpx"
	zonedomain "quakeguard/backend/internal/zone/domain"
)

// Repo is the alert repository contract the handler depends on.
type Repo interface {
	ListByZone(ctx context.Context, zoneID int64, limit int32) ([]*domain.Alert, error)
}

// ZoneRepo is the minimal zone repository needed to validate zone references.
type ZoneRepo interface {
	GetByID(ctx context.Context, id int64) (*zonedomain.Zone, error)
}

// Handler serves GET /zones/{zone_id}/alerts.
type Handler struct {
	repo  Repo
	zones ZoneRepo
}

// NewHandler returns an alert HTTP handler backed by the given repositories.
func NewHandler(repo Repo, zones ZoneRepo) *Handler {
	return &Handler{repo: repo, zones: zones}
}

type alertResponse struct {
	ID        int64     `json:"id"`
	ZoneID    int64     `json:"zone_id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  float64   `json:"severity"`
	Message   string    `json:"message"`
}

// ListByZone returns a zone's most recent alerts, newest first.
func (h *Handler) ListByZone(w http.ResponseWriter, r *http.Request) {
	zoneID, err := httpx.IDParam(r, "zone_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	zone, err := h.zones.GetByID(r.Context(), zoneID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if zone == nil {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}

	limit := httpx.QueryInt32(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	alerts, err := h.repo.ListByZone(r.Context(), zoneID, limit)
	if err != nil {
		h.internalError(w, err)
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{ID: a.ID, ZoneID: a.ZoneID, Timestamp: a.Timestamp, Severity: a.Severity, Message: a.Message})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Printf("alert: list by zone: %v", err)
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
