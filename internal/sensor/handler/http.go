// Package handler exposes sensor (misurator) administration over HTTP. Public
// keys travel hex-encoded on the wire and are stored as the decoded bytes, in
// whichever of the accepted encodings the device registered.
package handler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"

	"quakeguard/backend/internal/security"
	"quakeguard/backend/internal/sensor/domain"
	"quakeguard/backend/internal/server/httpx"
	zonedomain "quakeguard/backend/internal/zone/domain"
)

// Repo is the sensor repository contract the handler depends on.
type Repo interface {
	Create(ctx context.Context, s *domain.Sensor) error
	GetByID(ctx context.Context, id int64) (*domain.Sensor, error)
	List(ctx context.Context, active *bool, zoneID *int64, limit, offset int32) ([]*domain.Sensor, error)
	ListByZone(ctx context.Context, zoneID int64) ([]*domain.Sensor, error)
	Update(ctx context.Context, s *domain.Sensor) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
}

// ZoneRepo is the minimal zone repository needed to validate zone references.
type ZoneRepo interface {
	GetByID(ctx context.Context, id int64) (*zonedomain.Zone, error)
}

// Handler serves sensor CRUD and activation.
type Handler struct {
	repo  Repo
	zones ZoneRepo
}

// NewHandler returns a sensor HTTP handler backed by the given repositories.
func NewHandler(repo Repo, zones ZoneRepo) *Handler {
	return &Handler{repo: repo, zones: zones}
}

type sensorRequest struct {
	ZoneID       int64    `json:"zone_id"`
	Active       *bool    `json:"active"`
	PublicKeyHex string   `json:"public_key_hex"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type sensorResponse struct {
	ID           int64    `json:"id"`
	ZoneID       int64    `json:"zone_id"`
	Active       bool     `json:"active"`
	PublicKeyHex string   `json:"public_key_hex"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func toResponse(s *domain.Sensor) sensorResponse {
	return sensorResponse{
		ID:           s.ID,
		ZoneID:       s.ZoneID,
		Active:       s.Active,
		PublicKeyHex: hex.EncodeToString(s.PublicKey),
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
	}
}

// decodeKey validates the wire key: hex-encoded and parseable as one of the
// accepted public key encodings. A sensor registered with a garbage key would
// silently fail every verification, so reject it here instead.
func decodeKey(keyHex string) ([]byte, bool) {
	if keyHex == "" {
		return nil, true
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, false
	}
	if _, err := security.ParsePublicKey(key); err != nil {
		return nil, false
	}
	return key, true
}

// Create registers a sensor in an existing zone.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	zone, err := h.zones.GetByID(r.Context(), req.ZoneID)
	if err != nil {
		h.internalError(w, "create sensor", err)
		return
	}
	if zone == nil {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	key, ok := decodeKey(req.PublicKeyHex)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid public key")
		return
	}

	s := &domain.Sensor{
		ZoneID:    req.ZoneID,
		Active:    req.Active == nil || *req.Active,
		PublicKey: key,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.repo.Create(r.Context(), s); err != nil {
		h.internalError(w, "create sensor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(s))
}

// Get returns one sensor by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "misurator_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid sensor id")
		return
	}
	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, "get sensor", err)
		return
	}
	if s == nil {
		httpx.Error(w, http.StatusNotFound, "sensor not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(s))
}

// List returns sensors, optionally filtered by active status and zone.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var active *bool
	switch r.URL.Query().Get("active") {
	case "true":
		v := true
		active = &v
	case "false":
		v := false
		active = &v
	}
	zoneID := httpx.QueryInt64(r, "zone_id")
	limit := httpx.QueryInt32(r, "limit", 100)
	offset := httpx.QueryInt32(r, "offset", 0)

	sensors, err := h.repo.List(r.Context(), active, zoneID, limit, offset)
	if err != nil {
		h.internalError(w, "list sensors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(sensors))
}

// ListByZone returns all sensors installed in a zone.
func (h *Handler) ListByZone(w http.ResponseWriter, r *http.Request) {
	zoneID, err := httpx.IDParam(r, "zone_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	zone, err := h.zones.GetByID(r.Context(), zoneID)
	if err != nil {
		h.internalError(w, "list zone sensors", err)
		return
	}
	if zone == nil {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	sensors, err := h.repo.ListByZone(r.Context(), zoneID)
	if err != nil {
		h.internalError(w, "list zone sensors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(sensors))
}

// Update replaces a sensor's registration.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "misurator_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid sensor id")
		return
	}
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	zone, err := h.zones.GetByID(r.Context(), req.ZoneID)
	if err != nil {
		h.internalError(w, "update sensor", err)
		return
	}
	if zone == nil {
		httpx.Error(w, http.StatusNotFound, "zone not found")
		return
	}
	key, ok := decodeKey(req.PublicKeyHex)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid public key")
		return
	}

	s := &domain.Sensor{
		ID:        id,
		ZoneID:    req.ZoneID,
		Active:    req.Active == nil || *req.Active,
		PublicKey: key,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	found, err := h.repo.Update(r.Context(), s)
	if err != nil {
		h.internalError(w, "update sensor", err)
		return
	}
	if !found {
		httpx.Error(w, http.StatusNotFound, "sensor not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(s))
}

// Activate marks the sensor active so its measurements are accepted again.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate marks the sensor inactive; the gateway rejects its measurements.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := httpx.IDParam(r, "misurator_id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid sensor id")
		return
	}
	found, err := h.repo.SetActive(r.Context(), id, active)
	if err != nil {
		h.internalError(w, "set sensor active", err)
		return
	}
	if !found {
		httpx.Error(w, http.StatusNotFound, "sensor not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}

func toResponses(sensors []*domain.Sensor) []sensorResponse {
	out := make([]sensorResponse, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, toResponse(s))
	}
	return out
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("sensor: %s: %v", op, err)
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
