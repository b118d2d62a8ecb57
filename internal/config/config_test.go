package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.BackendURL == "" {
		t.Fatalf("expected default backend url")
	}
	if cfg.LocationTimeoutMS != 5000 {
		t.Fatalf("expected default location timeout")
	}
	if cfg.DefaultRatePerHour != 25 {
		t.Fatalf("expected default rate")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("BACKEND_URL", "http://backend.example/api/v1")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SCAN_COOLDOWN_MS", "3000")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.BackendURL != "http://backend.example/api/v1" {
		t.Fatalf("expected override backend url")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.ScanCooldownMS != 3000 {
		t.Fatalf("expected override cooldown")
	}
}
