// Package server assembles the HTTP API: ingestion, zone and sensor
// administration, measurement and alert reads, fleet statistics, and health.
package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	alerthandler "quakeguard/backend/internal/alert/handler"
	healthhandler "quakeguard/backend/internal/health/handler"
	ingesthandler "quakeguard/backend/internal/ingest/handler"
	measurementhandler "quakeguard/backend/internal/measurement/handler"
	sensorhandler "quakeguard/backend/internal/sensor/handler"
	"quakeguard/backend/internal/server/middleware"
	zonehandler "quakeguard/backend/internal/zone/handler"
)

// Deps holds the handlers mounted by the router.
type Deps struct {
	Ingest       *ingesthandler.Handler
	Zones        *zonehandler.Handler
	Sensors      *sensorhandler.Handler
	Measurements *measurementhandler.Handler
	Alerts       *alerthandler.Handler
	Health       *healthhandler.Handler
}

// NewRouter builds the chi router with logging, panic recovery, and request
// metrics applied to every route.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())

	r.Route("/misurations", func(r chi.Router) {
		r.Post("/", deps.Ingest.Ingest)
		r.Get("/", deps.Measurements.List)
		r.Get("/{misuration_id}", deps.Measurements.Get)
	})

	r.Route("/zones", func(r chi.Router) {
		r.Post("/", deps.Zones.Create)
		r.Get("/", deps.Zones.List)
		r.Get("/{zone_id}", deps.Zones.Get)
		r.Put("/{zone_id}", deps.Zones.Update)
		r.Delete("/{zone_id}", deps.Zones.Delete)
		r.Get("/{zone_id}/misurators", deps.Sensors.ListByZone)
		r.Get("/{zone_id}/alerts", deps.Alerts.ListByZone)
	})

	r.Route("/misurators", func(r chi.Router) {
		r.Post("/", deps.Sensors.Create)
		r.Get("/", deps.Sensors.List)
		r.Get("/{misurator_id}", deps.Sensors.Get)
		r.Put("/{misurator_id}", deps.Sensors.Update)
		r.Post("/{misurator_id}/activate", deps.Sensors.Activate)
		r.Post("/{misurator_id}/deactivate", deps.Sensors.Deactivate)
		r.Get("/{misurator_id}/misurations", deps.Measurements.ListBySensor)
	})

	r.Get("/sensors/{misurator_id}/statistics", deps.Measurements.Statistics)
	r.Get("/stats/zones", deps.Zones.FleetStats)
	r.Get("/health", deps.Health.Check)

	return r
}
