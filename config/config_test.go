package config

import (
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.DB.Host != "localhost" || cfg.DB.Port != 5432 {
		t.Fatalf("DB defaults: %s:%d", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.DB.DBName != "bank_db" {
		t.Fatalf("DBName=%q", cfg.DB.DBName)
	}
	if cfg.Ledger.NumberAttempts != 10 {
		t.Fatalf("NumberAttempts=%d want=10", cfg.Ledger.NumberAttempts)
	}
	if cfg.Ledger.NumberBackoff != 10*time.Millisecond {
		t.Fatalf("NumberBackoff=%v want=10ms", cfg.Ledger.NumberBackoff)
	}
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("LEDGER_NUMBER_ATTEMPTS", "25")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.DB.Host != "db.internal" {
		t.Fatalf("DB.Host=%q", cfg.DB.Host)
	}
	if cfg.DB.Port != 6432 {
		t.Fatalf("DB.Port=%d", cfg.DB.Port)
	}
	if cfg.Ledger.NumberAttempts != 25 {
		t.Fatalf("NumberAttempts=%d", cfg.Ledger.NumberAttempts)
	}
}
