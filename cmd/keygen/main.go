// keygen generates a P-256 sensor identity and a signed sample measurement,
// printed as a ready-to-POST /misurations/ body for manual testing.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"quakeguard/backend/internal/security"
)

func main() {
	value := flag.Int64("value", 250, "measurement value to sign")
	sensorID := flag.Int64("misurator-id", 1, "sensor id to place in the sample body")
	flag.Parse()

	priv, err := security.GenerateKey()
	if err != nil {
		log.Fatalf("keygen: %v", err)
	}

	ts := time.Now().Unix()
	sig, err := security.SignRaw(priv, security.CanonicalMessage(*value, ts))
	if err != nil {
		log.Fatalf("keygen: sign: %v", err)
	}

	fmt.Printf("private_key_hex=%s\n", hex.EncodeToString(priv.D.Bytes()))
	fmt.Printf("public_key_hex=%s\n", hex.EncodeToString(security.EncodePublicKeyRaw(&priv.PublicKey)))

	body := map[string]any{
		"value":            *value,
		"misurator_id":     *sensorID,
		"device_timestamp": ts,
		"signature_hex":    hex.EncodeToString(sig),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		log.Fatalf("keygen: %v", err)
	}
}
