package domain

import "time"

// Alert is a persisted record of detected anomalous activity in a zone.
// Alerts are created only by the stream processor under threshold and
// cooldown rules; Severity is the window's event count divided by the
// configured scale factor.
type Alert struct {
	ID        int64
	ZoneID    int64
	Timestamp time.Time
	Severity  float64
	Message   string
}
