package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("PAY_AMOUNT_SCALE", "0")
	t.Setenv("PAYROLL_CACHE_TTL_SECONDS", "abc")
	t.Setenv("LOCK_TTL_SECONDS", "-3")

	cfg := Load()
	if cfg.PayAmountScale != 1 {
		t.Fatalf("expected scale fallback 1, got %d", cfg.PayAmountScale)
	}
	if cfg.PayrollCacheTTLSeconds != 60 {
		t.Fatalf("expected cache ttl fallback 60, got %d", cfg.PayrollCacheTTLSeconds)
	}
	if cfg.LockTTLSeconds != 10 {
		t.Fatalf("expected lock ttl fallback 10, got %d", cfg.LockTTLSeconds)
	}
}

func TestLoadReadsPayScale(t *testing.T) {
	t.Setenv("PAY_AMOUNT_SCALE", "100")

	if got := Load().PayAmountScale; got != 100 {
		t.Fatalf("expected scale 100, got %d", got)
	}
}

func TestNewLoggerParsesLevel(t *testing.T) {
	if got := NewLogger("debug", "text").GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}
	if got := NewLogger("nonsense", "json").GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}
