package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the default generation model.
	DefaultOllamaModel = "llama3.2:3b"

	// DefaultModelTimeout bounds a single generation request.
	DefaultModelTimeout = 120 * time.Second

	apiPathGenerate = "/api/generate"
)

// OllamaModel generates text with a local Ollama server.
type OllamaModel struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures an OllamaModel.
type OllamaOption func(*OllamaModel)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(m *OllamaModel) {
		m.baseURL = url
	}
}

// WithModel sets the generation model.
func WithModel(model string) OllamaOption {
	return func(m *OllamaModel) {
		m.model = model
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(m *OllamaModel) {
		m.client.Timeout = timeout
	}
}

// NewOllamaModel creates an Ollama-backed model.
func NewOllamaModel(opts ...OllamaOption) *OllamaModel {
	m := &OllamaModel{
		baseURL: DefaultOllamaURL,
		model:   DefaultOllamaModel,
		client:  &http.Client{Timeout: DefaultModelTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options ollamaSampling `json:"options"`
}

type ollamaSampling struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
	Seed        int     `json:"seed"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Name returns the model name.
func (m *OllamaModel) Name() string {
	return m.model
}

// Generate implements Model with greedy decoding and a fixed seed.
func (m *OllamaModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   m.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaSampling{NumPredict: opts.MaxTokens, Temperature: 0, Seed: 0},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+apiPathGenerate, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return result.Response, nil
}

// formatErrorBody reads and formats the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return string(respBody)
}
