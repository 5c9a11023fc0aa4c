package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.QueueKey != "seismic_events" {
		t.Errorf("QueueKey = %q, want %q", cfg.QueueKey, "seismic_events")
	}
	if cfg.QueueMaxDepth != 10000 {
		t.Errorf("QueueMaxDepth = %d, want 10000", cfg.QueueMaxDepth)
	}
	if cfg.AlertThreshold != 10 {
		t.Errorf("AlertThreshold = %d, want 10", cfg.AlertThreshold)
	}
	if cfg.AlertScaleFactor != 10.0 {
		t.Errorf("AlertScaleFactor = %v, want 10.0", cfg.AlertScaleFactor)
	}
	if cfg.AlertsKafkaTopic != "quakeguard-alerts" {
		t.Errorf("AlertsKafkaTopic = %q, want default", cfg.AlertsKafkaTopic)
	}
	if cfg.VerifyQueueSize != 256 {
		t.Errorf("VerifyQueueSize = %d, want 256", cfg.VerifyQueueSize)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("ALERT_THRESHOLD", "25")
	os.Setenv("QUEUE_KEY", "events")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.AlertThreshold != 25 {
		t.Errorf("AlertThreshold = %d, want 25", cfg.AlertThreshold)
	}
	if cfg.QueueKey != "events" {
		t.Errorf("QueueKey = %q, want %q", cfg.QueueKey, "events")
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	os.Clearenv()
	os.Setenv("ALERT_THRESHOLD", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject ALERT_THRESHOLD=0")
	}
}

func TestDurationAccessors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		get  func(*Config) time.Duration
		want time.Duration
	}{
		{"window valid", Config{AlertWindow: "10s"}, (*Config).Window, 10 * time.Second},
		{"window invalid falls back", Config{AlertWindow: "bogus"}, (*Config).Window, 5 * time.Second},
		{"window empty falls back", Config{}, (*Config).Window, 5 * time.Second},
		{"cooldown valid", Config{AlertCooldown: "2m"}, (*Config).Cooldown, 2 * time.Minute},
		{"cooldown invalid falls back", Config{AlertCooldown: "-3s"}, (*Config).Cooldown, 60 * time.Second},
		{"drift valid", Config{IngestMaxDrift: "30s"}, (*Config).MaxDrift, 30 * time.Second},
		{"drift zero disables", Config{IngestMaxDrift: "0"}, (*Config).MaxDrift, 0},
		{"drift invalid disables", Config{IngestMaxDrift: "nope"}, (*Config).MaxDrift, 0},
		{"push timeout valid", Config{EnqueueTimeout: "500ms"}, (*Config).PushTimeout, 500 * time.Millisecond},
		{"push timeout invalid falls back", Config{EnqueueTimeout: ""}, (*Config).PushTimeout, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(&tt.cfg); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    int
	}{
		{"empty", "", 0},
		{"single", "localhost:9092", 1},
		{"multiple with spaces", "a:9092, b:9092 ,c:9092", 3},
		{"trailing comma", "a:9092,", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AlertsKafkaBrokers: tt.brokers}
			if got := cfg.KafkaBrokersList(); len(got) != tt.want {
				t.Errorf("KafkaBrokersList() = %v, want %d entries", got, tt.want)
			}
		})
	}
}
