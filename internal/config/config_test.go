package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ORIGIN", "")
	t.Setenv("ADDR", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Origin != "http://localhost:5173" {
		t.Fatalf("origin = %q", cfg.Origin)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if !cfg.Development() {
		t.Fatal("default environment should be development")
	}
	if cfg.JWTSecret != devSecret {
		t.Fatalf("secret = %q, want dev fallback", cfg.JWTSecret)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/app")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("ORIGIN", "https://dashboard.example.com")
	t.Setenv("ADDR", ":9090")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Development() {
		t.Fatal("production misreported as development")
	}
	if cfg.Origin != "https://dashboard.example.com" || cfg.Addr != ":9090" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JWTSecret != "super-secret" {
		t.Fatalf("secret = %q", cfg.JWTSecret)
	}
}
