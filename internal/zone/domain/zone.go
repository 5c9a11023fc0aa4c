package domain

// Zone is a geographical grouping (e.g. a city) that owns sensors and alerts.
type Zone struct {
	ID   int64
	City string
}
