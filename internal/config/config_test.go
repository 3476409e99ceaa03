package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.App.Port)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka should be off without brokers")
	}
	if cfg.Storage.SessionTTL() != 2*time.Hour {
		t.Errorf("session ttl = %v, want 2h default", cfg.Storage.SessionTTL())
	}
	if cfg.Storage.MaxUploadSizeBytes != 10<<20 {
		t.Errorf("max upload = %d, want 10MiB default", cfg.Storage.MaxUploadSizeBytes)
	}
}

func TestLoadKafkaBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		t.Fatal("kafka should be enabled with brokers set")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v, want 2 entries", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Brokers[0] != "broker-1:9092" || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("STORAGE_SESSION_TTL_MINUTES", "15")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "9999" {
		t.Errorf("port = %s", cfg.App.Port)
	}
	if cfg.Storage.SessionTTL() != 15*time.Minute {
		t.Errorf("session ttl = %v", cfg.Storage.SessionTTL())
	}
	if cfg.App.RequestTimeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.App.RequestTimeout())
	}
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid REDIS_DB")
	}
}
