package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/catalog"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/config"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/pipeline"
)

// Constants for output formatting.
const (
	DefaultListLimit = 50 // Default limit for list/search commands

	ListTitleMaxLen = 70 // Used in list and search output
	PreviewMaxLen   = 300

	TextWrapWidth = 72
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// exitCodeFor maps a failure to the exit code the CLI reports.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case pipeline.IsKind(err, pipeline.KindNoSource):
		return ExitNoSource
	case pipeline.IsKind(err, pipeline.KindExtractionFailed):
		return ExitExtraction
	case pipeline.IsKind(err, pipeline.KindInvalidPublication),
		errors.Is(err, catalog.ErrUnknownID),
		errors.Is(err, cache.ErrCorrupt):
		return ExitDataError
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, catalog.ErrMissingColumn):
		return ExitConfigError
	}
	return ExitError
}

// printAnalysisHuman prints a cached or fresh analysis.
func printAnalysisHuman(r *cache.AnalysisResult) {
	fmt.Printf("[%d] %s\n", r.PubID, r.Title)
	fmt.Printf("    %s\n", r.Link)
	fmt.Printf("    source: %s", r.Source)
	if r.DOI != "" {
		fmt.Printf("  doi: %s", r.DOI)
	}
	fmt.Printf("  analyzed: %s\n\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Println(r.Summary)
	if r.TextPreview != "" {
		fmt.Printf("\nPreview:\n    %s\n", wrapText(truncateString(r.TextPreview, PreviewMaxLen), TextWrapWidth, "    "))
	}
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}
