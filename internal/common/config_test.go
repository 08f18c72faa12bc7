package common

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.Loader.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Loader.Workers)
	}
	if cfg.Quality.VATRate != 1.24 {
		t.Errorf("VATRate = %v", cfg.Quality.VATRate)
	}
	if cfg.Quality.VATTolerance != 0.01 {
		t.Errorf("VATTolerance = %v", cfg.Quality.VATTolerance)
	}
	if cfg.Enrichment.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Enrichment.Timeout)
	}
	if cfg.Enrichment.Disabled {
		t.Error("enrichment disabled by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LOADER_WORKERS", "8")
	t.Setenv("VAT_RATE", "1.13")
	t.Setenv("AI_ENRICHMENT_DISABLED", "true")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("SUMMARY_MAX_CHARS", "120")

	cfg := LoadConfig()
	if cfg.Loader.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Loader.Workers)
	}
	if cfg.Quality.VATRate != 1.13 {
		t.Errorf("VATRate = %v", cfg.Quality.VATRate)
	}
	if !cfg.Enrichment.Disabled {
		t.Error("AI_ENRICHMENT_DISABLED not honored")
	}
	if cfg.Enrichment.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Enrichment.Timeout)
	}
	if cfg.Enrichment.SummaryMaxChars != 120 {
		t.Errorf("SummaryMaxChars = %d", cfg.Enrichment.SummaryMaxChars)
	}
}

func TestLoadConfig_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("LOADER_WORKERS", "many")
	t.Setenv("VAT_RATE", "high")
	cfg := LoadConfig()
	if cfg.Loader.Workers != 4 || cfg.Quality.VATRate != 1.24 {
		t.Errorf("malformed env not ignored: %+v", cfg)
	}
}
