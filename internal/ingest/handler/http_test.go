package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quakeguard/backend/internal/ingest/service"
)

type stubIngestor struct {
	gotReq service.Request
	id     string
	err    error
}

func (s *stubIngestor) Ingest(ctx context.Context, req service.Request) (string, error) {
	s.gotReq = req
	return s.id, s.err
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/misurations/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)
	return rec
}

func TestIngestHandler_Accepted(t *testing.T) {
	stub := &stubIngestor{id: "evt-1"}
	h := NewHandler(stub)

	rec := post(t, h, `{"value":250,"misurator_id":42,"device_timestamp":1700000000,"signature_hex":"deadbeef"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "accepted" || resp["event_id"] != "evt-1" {
		t.Errorf("response = %v, want status=accepted event_id=evt-1", resp)
	}
	if stub.gotReq.Value != 250 || stub.gotReq.SensorID != 42 || stub.gotReq.DeviceTimestamp != 1700000000 {
		t.Errorf("service request = %+v", stub.gotReq)
	}
	if string(stub.gotReq.Signature) != "\xde\xad\xbe\xef" {
		t.Errorf("signature bytes = %x, want deadbeef", stub.gotReq.Signature)
	}
}

func TestIngestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized sensor", service.ErrUnauthorizedSensor, http.StatusForbidden},
		{"stale timestamp", service.ErrStaleTimestamp, http.StatusForbidden},
		{"invalid signature", service.ErrInvalidSignature, http.StatusUnauthorized},
		{"verifier busy", service.ErrVerifierBusy, http.StatusServiceUnavailable},
		{"queue unavailable", service.ErrQueueUnavailable, http.StatusServiceUnavailable},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubIngestor{err: tt.err})
			rec := post(t, h, `{"value":1,"misurator_id":1,"device_timestamp":1,"signature_hex":"00"}`)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestIngestHandler_BadBody(t *testing.T) {
	h := NewHandler(&stubIngestor{})
	rec := post(t, h, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestHandler_BadSignatureHex(t *testing.T) {
	h := NewHandler(&stubIngestor{})
	for _, body := range []string{
		`{"value":1,"misurator_id":1,"device_timestamp":1,"signature_hex":"zz"}`,
		`{"value":1,"misurator_id":1,"device_timestamp":1,"signature_hex":""}`,
	} {
		rec := post(t, h, body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d for body %s, want 401", rec.Code, body)
		}
	}
}
