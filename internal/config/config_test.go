package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.TokenTTL != 5*time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.LockWait != 3*time.Second || cfg.LockLease != 10*time.Second {
		t.Fatalf("unexpected lock bounds wait=%v lease=%v", cfg.LockWait, cfg.LockLease)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRejectsShortLease(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOCK_WAIT_MS", "3000")
	t.Setenv("LOCK_LEASE_MS", "2000")
	if _, err := Load(); err == nil {
		t.Fatalf("lease shorter than wait must be rejected")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092")
	t.Setenv("TOKEN_TTL_SEC", "60")
	t.Setenv("BUY_RATE_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.TokenTTL != time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.BuyRateLimit != 5 {
		t.Fatalf("unexpected rate limit %d", cfg.BuyRateLimit)
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid REDIS_DB")
	}
}
