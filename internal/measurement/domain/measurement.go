package domain

import "time"

// Measurement is one authenticated reading (misuration) from a sensor.
// CreatedAt is assigned by the store at insert time, never by the client.
type Measurement struct {
	ID        int64
	SensorID  int64
	Value     int64
	CreatedAt time.Time
}

// Statistics aggregates a sensor's measurement values.
type Statistics struct {
	Count   int64
	Average float64
	Max     int64
	Min     int64
}
