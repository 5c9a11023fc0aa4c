// Package handler exposes the ingestion gateway over HTTP. Rejections carry
// the sentinel's message in a JSON detail field; signature material is never
// echoed back or logged.
package handler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quakeguard/backend/internal/ingest/service"
)

// Ingestor is the gateway contract the handler depends on.
type Ingestor interface {
	Ingest(ctx context.Context, req service.Request) (string, error)
}

// Handler serves POST /misurations/.
type Handler struct {
	svc Ingestor
}

// NewHandler returns an ingest HTTP handler backed by the given service.
func NewHandler(svc Ingestor) *Handler {
	return &Handler{svc: svc}
}

type ingestRequest struct {
	Value           int64  `json:"value"`
	SensorID        int64  `json:"misurator_id"`
	DeviceTimestamp int64  `json:"device_timestamp"`
	SignatureHex    string `json:"signature_hex"`
}

// Ingest accepts one signed measurement. 202 means admitted to the queue, not
// yet durable.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sig, err := hex.DecodeString(req.SignatureHex)
	if err != nil || len(sig) == 0 {
		writeError(w, http.StatusUnauthorized, service.ErrInvalidSignature.Error())
		return
	}

	id, err := h.svc.Ingest(r.Context(), service.Request{
		Value:           req.Value,
		SensorID:        req.SensorID,
		DeviceTimestamp: req.DeviceTimestamp,
		Signature:       sig,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("ingest: sensor=%d: %v", req.SensorID, err)
			writeError(w, status, "internal error")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "event_id": id})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorizedSensor), errors.Is(err, service.ErrStaleTimestamp):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrVerifierBusy), errors.Is(err, service.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
