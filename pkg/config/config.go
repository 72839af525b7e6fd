package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DataDir string       `json:"data_dir" env:"DNACHAT_DATA_DIR"`
	LogMode string       `json:"log_mode" env:"DNACHAT_LOG_MODE"`
	Gemini  GeminiConfig `json:"gemini"`
}

type GeminiConfig struct {
	// APIKey here is only the bootstrap fallback; the key saved through the
	// CLI lives in the durable store and takes precedence.
	APIKey         string `json:"api_key" env:"DNACHAT_GEMINI_API_KEY"`
	APIBase        string `json:"api_base" env:"DNACHAT_GEMINI_API_BASE"`
	Model          string `json:"model" env:"DNACHAT_GEMINI_MODEL"`
	TTSModel       string `json:"tts_model" env:"DNACHAT_GEMINI_TTS_MODEL"`
	TTSVoice       string `json:"tts_voice" env:"DNACHAT_GEMINI_TTS_VOICE"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"DNACHAT_GEMINI_TIMEOUT_SECONDS"`
	ThinkingBudget int    `json:"thinking_budget" env:"DNACHAT_GEMINI_THINKING_BUDGET"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "~/.dnachat",
		LogMode: "dev",
		Gemini: GeminiConfig{
			APIBase:        "https://generativelanguage.googleapis.com/v1beta",
			Model:          "gemini-3-pro-preview",
			TTSModel:       "gemini-2.5-flash-preview-tts",
			TTSVoice:       "Kore",
			TimeoutSeconds: 120,
			ThinkingBudget: 4000,
		},
	}
}

// LoadConfig reads the JSON config at path and applies DNACHAT_* environment
// overrides on top. A missing file is not an error; defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// DefaultConfigPath is ~/.dnachat/config.json.
func DefaultConfigPath() string {
	return filepath.Join(expandHome("~/.dnachat"), "config.json")
}

func (c *Config) DataPath() string {
	return expandHome(c.DataDir)
}

// StorePath is the SQLite file holding all durable records.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataPath(), "dnachat.db")
}

func (c *Config) RequestTimeout() time.Duration {
	secs := c.Gemini.TimeoutSeconds
	if secs <= 0 {
		secs = 120
	}
	return time.Duration(secs) * time.Second
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
