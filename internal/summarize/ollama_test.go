package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOllamaModel_Defaults(t *testing.T) {
	m := NewOllamaModel()

	if m.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %s, want %s", m.baseURL, DefaultOllamaURL)
	}
	if m.model != DefaultOllamaModel {
		t.Errorf("model = %s, want %s", m.model, DefaultOllamaModel)
	}
	if m.client.Timeout != DefaultModelTimeout {
		t.Errorf("timeout = %v, want %v", m.client.Timeout, DefaultModelTimeout)
	}
}

func TestNewOllamaModel_WithOptions(t *testing.T) {
	m := NewOllamaModel(
		WithBaseURL("http://custom:8080"),
		WithModel("custom-model"),
		WithTimeout(5*time.Second),
	)

	if m.baseURL != "http://custom:8080" {
		t.Errorf("baseURL = %s", m.baseURL)
	}
	if m.Name() != "custom-model" {
		t.Errorf("Name() = %s, want custom-model", m.Name())
	}
	if m.client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", m.client.Timeout)
	}
}

func TestOllamaModel_Generate(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPathGenerate {
			t.Errorf("path = %s, want %s", r.URL.Path, apiPathGenerate)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"response":"Mice lost bone mass.","done":true}`))
	}))
	defer srv.Close()

	m := NewOllamaModel(WithBaseURL(srv.URL), WithModel("tiny"))
	out, err := m.Generate(context.Background(), "Summarize this.", GenerateOptions{MaxTokens: 150})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "Mice lost bone mass." {
		t.Errorf("Generate() = %q", out)
	}
	if got.Model != "tiny" || got.Prompt != "Summarize this." || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if got.Options.NumPredict != 150 || got.Options.Temperature != 0 {
		t.Errorf("sampling options = %+v, want num_predict 150 and temperature 0", got.Options)
	}
}

func TestOllamaModel_GenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	m := NewOllamaModel(WithBaseURL(srv.URL))
	_, err := m.Generate(context.Background(), "x", GenerateOptions{MaxTokens: 10})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Generate() error = %v, want status error with body", err)
	}
}

func TestFormatErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple error message", "error occurred", "error occurred"},
		{"empty body", "", ""},
		{"json error", `{"error": "not found"}`, `{"error": "not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatErrorBody(strings.NewReader(tt.input))
			if result != tt.expected {
				t.Errorf("formatErrorBody() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestModelsImplementModel(t *testing.T) {
	var _ Model = (*OllamaModel)(nil)
	var _ Model = (*OpenAIModel)(nil)
}
