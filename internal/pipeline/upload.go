package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// UploadResult is the analysis of a user-supplied PDF.
type UploadResult struct {
	Filename    string `json:"filename"`
	Summary     string `json:"summary"`
	TextPreview string `json:"text_preview"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ProcessUpload stores an uploaded PDF under the upload directory and
// summarizes it. Source resolution, fetching and the cache are bypassed.
func (p *Pipeline) ProcessUpload(ctx context.Context, filename string, r io.Reader) (result *UploadResult, err error) {
	if p.uploadDir == "" {
		return nil, errors.New("pipeline: upload directory not configured")
	}

	name := sanitizeFilename(filename)
	dest := filepath.Join(p.uploadDir, name)
	if err := saveUpload(dest, r); err != nil {
		return nil, err
	}

	logger := p.logger.With().Str("upload", name).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, panicError(logger, -1, rec)
		}
	}()

	text, err := p.extractor.Extract(dest)
	if err != nil {
		logger.Warn().Err(err).Msg("upload extraction failed")
		return nil, &Error{Kind: KindExtractionFailed, PubID: -1, Err: err}
	}

	result = &UploadResult{
		Filename:    name,
		Summary:     p.summarizer.Summarize(ctx, text),
		TextPreview: preview(text),
	}
	logger.Info().Int("chars", len(text)).Msg("upload analyzed")
	return result, nil
}

// sanitizeFilename reduces an uploaded name to a safe base name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "upload.pdf"
	}
	return name
}

// saveUpload writes r to dest through a temp file in the same directory.
func saveUpload(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing upload: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming upload: %w", err)
	}
	return nil
}
