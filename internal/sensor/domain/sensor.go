package domain

// Sensor is a registered IoT device (misurator) installed in a zone.
// PublicKey holds the device's verification credential as registered: either
// a 64-byte raw P-256 point or a DER-encoded PKIX structure. A sensor with an
// empty key can never produce an accepted measurement.
type Sensor struct {
	ID        int64
	ZoneID    int64
	Active    bool
	PublicKey []byte
	Latitude  *float64
	Longitude *float64
}

// HasKey reports whether the sensor has a registered public key.
func (s *Sensor) HasKey() bool {
	return s != nil && len(s.PublicKey) > 0
}
