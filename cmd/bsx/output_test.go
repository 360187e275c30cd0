package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/catalog"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/config"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/pipeline"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"no source", &pipeline.Error{Kind: pipeline.KindNoSource, PubID: 1}, ExitNoSource},
		{"extraction", &pipeline.Error{Kind: pipeline.KindExtractionFailed, PubID: 1}, ExitExtraction},
		{"invalid publication", &pipeline.Error{Kind: pipeline.KindInvalidPublication}, ExitDataError},
		{"unknown id", fmt.Errorf("%w: 99", catalog.ErrUnknownID), ExitDataError},
		{"corrupt cache", &cache.CorruptError{Path: "x", Err: errors.New("bad")}, ExitDataError},
		{"invalid config", fmt.Errorf("%w: timeout", config.ErrInvalid), ExitConfigError},
		{"missing column", fmt.Errorf("%w: Link", catalog.ErrMissingColumn), ExitConfigError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title here", 10, "a longe..."},
		{"µµµµµµµµµµµµ", 6, "µµµ..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	text := "spaceflight alters bone density in mice through osteoclast activation"
	got := wrapText(text, 20, "  ")

	for i, line := range strings.Split(got, "\n") {
		line = strings.TrimPrefix(line, "  ")
		if len(line) > 20 {
			t.Errorf("line %d = %q exceeds width", i, line)
		}
	}
	if strings.Join(strings.Fields(got), " ") != text {
		t.Errorf("wrapText lost words: %q", got)
	}
	if wrapText("short", 20, "  ") != "short" {
		t.Error("short text should be unchanged")
	}
}
