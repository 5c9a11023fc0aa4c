// Package handler exposes measurement (misuration) reads and per-sensor
// statistics over HTTP. Measurements are write-only through the ingest
// pipeline; this surface is read-only.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"quakeguard/backend/internal/measurement/domain"
	sensordomain "quakeguard/backend/internal/sensor/domain"
	"quakeguard/backend/internal/server/httpx"
)

// Repo is the measurement repository contract the handler depends on.
type Repo interface {
	GetByID(ctx context.Context, id int64) (*domain.Measurement, error)
	List(ctx context.Context, sensorID *int64, since, until *time.Time, limit, offset int32) ([]*domain.Measurement, error)
	Statistics(ctx context.Context, sensorID int64) (*domain.Statistics, error)
}

// SensorRepo is the minimal sensor repository needed to validate sensor references.
type SensorRepo interface {
	GetByID(ctx context.Context, id int64) (*sensordomain.Sensor, error)
}

// Handler serves measurement listing and sensor statistics.
type Handler struct {
	repo    Repo
	sensors SensorRepo
}

// NewHandler returns a measurement HTTP handler backed by the given repositories.
func NewHandler(repo Repo, sensors SensorRepo) *Handler {
	return &Handler{repo: repo, sensors: sensors}
}

type measurementResponse struct {
	ID        int64     `json:"id"`
	SensorID  int64     `json:"misurator_id"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponses(ms []*domain.Measurement) []measurementResponse {
	out := make([]measurementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, measurementResponse{ID: m.ID, SensorID: m.SensorID, Value: m.Value, CreatedAt: m.CreatedAt})
	}
	return out
}

// Get returns one measurement by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "misuration_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid measurement id")
		return
	}
	m, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "get measurement", err)
		return
	}
	if m == nil {
		httpx.Error(w, http.StatusNotFound, "measurement not found")
		return
	}
	httpx.JSON(w, http.StatusOK, measurementResponse{ID: m.ID, SensorID: m.SensorID, Value: m.Value, CreatedAt: m.CreatedAt})
}

// List returns measurements filtered by sensor and RFC 3339 time bounds.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sensorID := httpx.QueryInt64(r, "misurator_id")
	var since, until *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		since = &t
	}
	if s := r.URL.Query().Get("until"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid until timestamp")
			return
		}
		until = &t
	}
	limit := httpx.QueryInt32(r, "limit", 100)
	offset := httpx.QueryInt32(r, "offset", 0)

	ms, err := h.repo.List(r.Context(), sensorID, since, until, limit, offset)
	if err != nil {
		h.internalError(w, "list measurements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(ms))
}

// ListBySensor returns a sensor's measurements from the last N hours
// (default 24).
func (h *Handler) ListBySensor(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "misurator_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid sensor id")
		return
	}
	sensor, err := h.sensors.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "list sensor measurements", err)
		return
	}
	if sensor == nil {
		httpx.Error(w, http.StatusNotFound, "sensor not found")
		return
	}

	hours := httpx.QueryInt32(r, "hours", 24)
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	limit := httpx.QueryInt32(r, "limit", 1000)

	ms, err := h.repo.List(r.Context(), &id, &since, nil, limit, 0)
	if err != nil {
		h.internalError(w, "list sensor measurements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(ms))
}

type statisticsResponse struct {
	Count       int64     `json:"count"`
	Average     float64   `json:"average"`
	Max         int64     `json:"max"`
	Min         int64     `json:"min"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Statistics returns count/average/max/min over a sensor's measurements.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "misurator_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid sensor id")
		return
	}
	sensor, err := h.sensors.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "sensor statistics", err)
		return
	}
	if sensor == nil {
		httpx.Error(w, http.StatusNotFound, "sensor not found")
		return
	}

	stats, err := h.repo.Statistics(r.Context(), id)
	if err != nil {
		h.internalError(w, "sensor statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, statisticsResponse{
		Count:       stats.Count,
		Average:     stats.Average,
		Max:         stats.Max,
		Min:         stats.Min,
		GeneratedAt: time.Now().UTC(),
	})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("measurement: %s: %v", op, err)
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
