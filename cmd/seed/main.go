// seed inserts development sample data: three zones with two sensors each,
// every sensor registered with a freshly generated P-256 key. The matching
// private keys are printed so local load tests can sign measurements.
// Idempotent: exits without writing if the first seed zone already exists.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"

	"quakeguard/backend/internal/config"
	"quakeguard/backend/internal/db"
	"quakeguard/backend/internal/security"
	sensordomain "quakeguard/backend/internal/sensor/domain"
	sensorrepo "quakeguard/backend/internal/sensor/repository"
	zonedomain "quakeguard/backend/internal/zone/domain"
	zonerepo "quakeguard/backend/internal/zone/repository"
)

var seedCities = []string{"Milano", "Bergamo", "Treviglio"}

const sensorsPerZone = 2

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	zones := zonerepo.NewPostgresRepository(conn)
	sensors := sensorrepo.NewPostgresRepository(conn)

	existing, err := zones.GetByCity(ctx, seedCities[0])
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Printf("seed: zone %q already exists, nothing to do", seedCities[0])
		return
	}

	for _, city := range seedCities {
		z := &zonedomain.Zone{City: city}
		if err := zones.Create(ctx, z); err != nil {
			log.Fatalf("seed: create zone %s: %v", city, err)
		}
		log.Printf("seed: zone %d (%s)", z.ID, z.City)

		for i := 0; i < sensorsPerZone; i++ {
			priv, err := security.GenerateKey()
			if err != nil {
				log.Fatalf("seed: generate key: %v", err)
			}
			s := &sensordomain.Sensor{
				ZoneID:    z.ID,
				Active:    true,
				PublicKey: security.EncodePublicKeyRaw(&priv.PublicKey),
			}
			if err := sensors.Create(ctx, s); err != nil {
				log.Fatalf("seed: create sensor in zone %d: %v", z.ID, err)
			}
			fmt.Printf("sensor %d (zone %d) private_key_hex=%s\n",
				s.ID, z.ID, hex.EncodeToString(priv.D.Bytes()))
		}
	}
	log.Println("seed: done")
}
