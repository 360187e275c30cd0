package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/summarize"
)

const (
	// ConfigDirName is the directory name under XDG_CONFIG_HOME.
	ConfigDirName = "bsx"
	// ConfigFileName is the config file name.
	ConfigFileName = "config.yml"
)

// Path returns the config file location. BSX_CONFIG wins; otherwise
// XDG_CONFIG_HOME is respected, defaulting to ~/.config/bsx/config.yml.
func Path() string {
	if p := os.Getenv("BSX_CONFIG"); p != "" {
		return ExpandPath(p)
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDirName, ConfigFileName)
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	applyEnv(cfg)
	cfg.DataDir = ExpandPath(cfg.DataDir)
	cfg.Catalog = ExpandPath(cfg.Catalog)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.DataDir, "BSX_DATA_DIR")
	set(&cfg.Catalog, "BSX_CATALOG")
	set(&cfg.Log.Level, "BSX_LOG_LEVEL")
	set(&cfg.Model.Backend, "BSX_MODEL_BACKEND")
	set(&cfg.Model.Name, "BSX_MODEL")

	switch cfg.Model.Backend {
	case BackendOllama:
		set(&cfg.Model.BaseURL, "OLLAMA_HOST")
	case BackendOpenAI:
		set(&cfg.Model.BaseURL, "OPENAI_BASE_URL")
		set(&cfg.Model.APIKey, "OPENAI_API_KEY")
		if cfg.Model.Name == summarize.DefaultOllamaModel {
			cfg.Model.Name = summarize.DefaultOpenAIModel
		}
	}
}

// Marshal renders cfg as YAML with secrets redacted.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	if redacted.Model.APIKey != "" {
		redacted.Model.APIKey = "***"
	}
	return yaml.Marshal(&redacted)
}
