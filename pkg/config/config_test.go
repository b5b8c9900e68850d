package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	t.Setenv("FORECAST_API_URL", "http://127.0.0.1:8000/")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL = %q; want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v; want 3s", cfg.RequestTimeout)
	}
	if cfg.DefaultHorizon != 1 {
		t.Errorf("DefaultHorizon = %d; want 1", cfg.DefaultHorizon)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile should default to a non-empty path")
	}
}

func TestLoad_MissingBaseURL(t *testing.T) {
	os.Unsetenv("FORECAST_API_URL")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error due to missing FORECAST_API_URL, got nil")
	}
}

func TestLoad_BadHorizon(t *testing.T) {
	t.Setenv("FORECAST_API_URL", "http://localhost:8000")
	t.Setenv("DEFAULT_HORIZON", "14")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unsupported horizon, got nil")
	}
}
