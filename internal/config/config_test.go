package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != ":8080" {
		t.Errorf("HTTPPort = %q, want :8080", cfg.HTTPPort)
	}
	if cfg.SweepSchedule != "@every 1h" {
		t.Errorf("SweepSchedule = %q, want @every 1h", cfg.SweepSchedule)
	}
	if cfg.SweepNational {
		t.Error("SweepNational should default to false")
	}
	if cfg.IssueDailyCap != 5 {
		t.Errorf("IssueDailyCap = %d, want 5", cfg.IssueDailyCap)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SWEEP_INCLUDE_NATIONAL", "true")
	t.Setenv("ISSUE_DAILY_CAP", "10")
	t.Setenv("JWT_TTL", "2h")

	cfg := Load()

	if !cfg.SweepNational {
		t.Error("SweepNational not picked up from env")
	}
	if cfg.IssueDailyCap != 10 {
		t.Errorf("IssueDailyCap = %d, want 10", cfg.IssueDailyCap)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Errorf("JWTTTL = %v, want 2h", cfg.JWTTTL)
	}
}

func TestMustGetIntBadValue(t *testing.T) {
	t.Setenv("ISSUE_DAILY_CAP", "lots")
	if got := MustGetInt("ISSUE_DAILY_CAP", 5); got != 5 {
		t.Errorf("MustGetInt with bad value = %d, want fallback 5", got)
	}
}
