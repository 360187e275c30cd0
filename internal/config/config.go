// Package config handles pipeline configuration: data locations, network
// bounds, model backend selection and summarization limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/fetch"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/source"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/summarize"
)

const (
	PDFDir     = "pdfs"
	CacheDir   = "cache"
	UploadDir  = "uploads"
	IndexFile  = "analyses.db"
	DefaultDir = "data"

	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full pipeline configuration.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Catalog string        `yaml:"catalog,omitempty"` // CSV with Title,Link columns
	Fetch   FetchConfig   `yaml:"fetch"`
	Model   ModelConfig   `yaml:"model"`
	Summary SummaryConfig `yaml:"summary"`
	Log     LogConfig     `yaml:"log"`
}

// FetchConfig bounds network access.
type FetchConfig struct {
	UserAgent       string        `yaml:"user_agent"`
	StructuredURL   string        `yaml:"structured_url"`
	StructuredHosts []string      `yaml:"structured_hosts"`
	RateLimit       float64       `yaml:"rate_limit"` // structured API requests per second
	Timeout         time.Duration `yaml:"timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	MaxPDFMB        int           `yaml:"max_pdf_mb"`
}

// ModelConfig selects the generation backend.
type ModelConfig struct {
	Backend string        `yaml:"backend"` // ollama or openai
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url,omitempty"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// SummaryConfig mirrors summarize.Options.
type SummaryConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	MaxChunks     int `yaml:"max_chunks"`
	MaxTokens     int `yaml:"max_tokens"`
	MinTokens     int `yaml:"min_tokens"`
	GapsMaxTokens int `yaml:"gaps_max_tokens"`
	GapsMinTokens int `yaml:"gaps_min_tokens"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := summarize.DefaultOptions()
	return &Config{
		DataDir: DefaultDir,
		Fetch: FetchConfig{
			UserAgent:       fetch.DefaultUserAgent,
			StructuredURL:   fetch.DefaultStructuredURL,
			StructuredHosts: append([]string(nil), source.DefaultStructuredHosts...),
			RateLimit:       fetch.DefaultRateLimit,
			Timeout:         fetch.DefaultTimeout,
			ProbeTimeout:    fetch.DefaultProbeTimeout,
			DownloadTimeout: fetch.DefaultDownloadTimeout,
			MaxRetries:      fetch.DefaultMaxRetries,
			RetryDelay:      fetch.DefaultRetryDelay,
			MaxPDFMB:        fetch.DefaultMaxPDFBytes >> 20,
		},
		Model: ModelConfig{
			Backend: BackendOllama,
			Name:    summarize.DefaultOllamaModel,
			Timeout: summarize.DefaultModelTimeout,
		},
		Summary: SummaryConfig{
			ChunkSize:     opts.ChunkSize,
			MaxChunks:     opts.MaxChunks,
			MaxTokens:     opts.MaxTokens,
			MinTokens:     opts.MinTokens,
			GapsMaxTokens: opts.GapsMaxTokens,
			GapsMinTokens: opts.GapsMinTokens,
		},
		Log: LogConfig{Level: "info"},
	}
}

// SummaryOptions converts the summary section to engine options.
func (c *Config) SummaryOptions() summarize.Options {
	return summarize.Options{
		ChunkSize:     c.Summary.ChunkSize,
		MaxChunks:     c.Summary.MaxChunks,
		MaxTokens:     c.Summary.MaxTokens,
		MinTokens:     c.Summary.MinTokens,
		GapsMaxTokens: c.Summary.GapsMaxTokens,
		GapsMinTokens: c.Summary.GapsMinTokens,
	}
}

// Validate rejects configurations the pipeline cannot run with. Every
// network operation must have an explicit timeout.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalid)
	}
	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"fetch.timeout", c.Fetch.Timeout},
		{"fetch.probe_timeout", c.Fetch.ProbeTimeout},
		{"fetch.download_timeout", c.Fetch.DownloadTimeout},
		{"model.timeout", c.Model.Timeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, t.name)
		}
	}
	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("%w: fetch.max_retries must be at least 1", ErrInvalid)
	}
	if c.Fetch.MaxPDFMB < 1 {
		return fmt.Errorf("%w: fetch.max_pdf_mb must be at least 1", ErrInvalid)
	}
	switch c.Model.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("%w: model.backend %q (valid: %s, %s)", ErrInvalid, c.Model.Backend, BackendOllama, BackendOpenAI)
	}
	if err := c.SummaryOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// PDFPath returns the directory downloaded PDFs are stored in.
func (c *Config) PDFPath() string {
	return filepath.Join(c.DataDir, PDFDir)
}

// CachePath returns the directory cache entries are stored in.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, CacheDir)
}

// UploadPath returns the directory uploaded PDFs are copied to.
func (c *Config) UploadPath() string {
	return filepath.Join(c.DataDir, UploadDir)
}

// IndexPath returns the path to the SQLite analysis index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, CacheDir, IndexFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
