package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Gemini(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Gemini.Model == "" {
		t.Error("Model should not be empty")
	}
	if cfg.Gemini.APIBase == "" {
		t.Error("APIBase should not be empty")
	}
	if cfg.Gemini.ThinkingBudget != 4000 {
		t.Errorf("ThinkingBudget = %d, want 4000", cfg.Gemini.ThinkingBudget)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Gemini.Model != DefaultConfig().Gemini.Model {
		t.Errorf("Model = %q, want default", cfg.Gemini.Model)
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Gemini.Model = "gemini-test"
	cfg.Gemini.TimeoutSeconds = 7
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Gemini.Model != "gemini-test" {
		t.Errorf("Model = %q, want gemini-test", loaded.Gemini.Model)
	}
	if loaded.RequestTimeout().Seconds() != 7 {
		t.Errorf("RequestTimeout = %v, want 7s", loaded.RequestTimeout())
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	os.Setenv("DNACHAT_GEMINI_MODEL", "gemini-env")
	defer os.Unsetenv("DNACHAT_GEMINI_MODEL")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Gemini.Model != "gemini-env" {
		t.Errorf("Model = %q, want gemini-env", cfg.Gemini.Model)
	}
}
