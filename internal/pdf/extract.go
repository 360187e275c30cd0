// Package pdf extracts clean plain text from PDF files using a chain of
// extraction backends.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Errors returned by Extract.
var (
	ErrNotFound           = errors.New("pdf file not found")
	ErrNoBackendSucceeded = errors.New("no extraction backend produced text")
)

// Backend turns a PDF file into raw text.
type Backend interface {
	Name() string
	Extract(path string) (string, error)
}

// Extractor tries each backend in order and returns the first non-empty
// cleaned text.
type Extractor struct {
	backends []Backend
	logger   zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBackends replaces the default backend chain.
func WithBackends(backends ...Backend) Option {
	return func(e *Extractor) {
		e.backends = backends
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l.With().Str("component", "extract").Logger()
	}
}

// NewExtractor creates an extractor. The default chain is the row-aware
// backend followed by the plain page backend.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		backends: []Backend{RowBackend{}, PlainBackend{}},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns cleaned text for the PDF at path. Fallback is per document:
// if a backend fails or yields nothing after cleaning, the next backend
// processes the whole file again.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	var lastErr error
	for _, b := range e.backends {
		raw, err := safeExtract(b, path)
		if err != nil {
			e.logger.Warn().Err(err).Str("backend", b.Name()).Str("path", path).Msg("extraction backend failed")
			lastErr = err
			continue
		}
		text := Clean(raw)
		if text == "" {
			e.logger.Warn().Str("backend", b.Name()).Str("path", path).Msg("extraction backend produced no text")
			lastErr = fmt.Errorf("%s: empty text", b.Name())
			continue
		}
		e.logger.Debug().Str("backend", b.Name()).Int("chars", len(text)).Msg("extracted text")
		return text, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no backends configured")
	}
	return "", fmt.Errorf("%w: %s: %v", ErrNoBackendSucceeded, path, lastErr)
}

// safeExtract converts a backend panic into an error; the PDF parser panics
// on some malformed files.
func safeExtract(b Backend, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", b.Name(), r)
		}
	}()
	return b.Extract(path)
}

// Clean normalizes extracted text: lines of two characters or fewer after
// trimming are dropped, the rest are joined with spaces, and whitespace runs
// collapse to a single space.
func Clean(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 2 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}

// RowBackend places each glyph by its position on the page, groups glyphs
// sharing a baseline into rows, and reads rows top to bottom. Text drawn out
// of order in the content stream still comes out in visual order.
type RowBackend struct{}

// Name implements Backend.
func (RowBackend) Name() string { return "rows" }

// Extract implements Backend.
func (RowBackend) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, row := range groupRows(page.Content().Text) {
			b.WriteString(rowText(row))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// groupRows splits glyphs into rows by baseline, top of the page first, each
// row ordered left to right. Glyphs whose baselines differ by less than half
// the font size share a row.
func groupRows(glyphs []pdf.Text) [][]pdf.Text {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]pdf.Text
	var row []pdf.Text
	var rowY float64
	for _, g := range sorted {
		if len(row) > 0 && rowY-g.Y > rowTolerance(g.FontSize) {
			rows = append(rows, row)
			row = nil
		}
		if len(row) == 0 {
			rowY = g.Y
		}
		row = append(row, g)
	}
	rows = append(rows, row)

	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool {
			return r[i].X < r[j].X
		})
	}
	return rows
}

func rowTolerance(fontSize float64) float64 {
	if t := fontSize / 2; t > 1 {
		return t
	}
	return 1
}

// rowText joins the glyphs of a row, inserting a space where the horizontal
// gap suggests a word break.
func rowText(texts []pdf.Text) string {
	var b strings.Builder
	var prevEnd float64
	endsInSpace := true
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if strings.TrimSpace(t.S) == "" {
			if !endsInSpace {
				b.WriteByte(' ')
				endsInSpace = true
			}
			prevEnd = t.X + t.W
			continue
		}
		if !endsInSpace && t.X-prevEnd > t.FontSize*0.15 {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
		endsInSpace = strings.HasSuffix(t.S, " ")
	}
	return strings.TrimSpace(b.String())
}

// PlainBackend reads each page's content stream as plain text.
type PlainBackend struct{}

// Name implements Backend.
func (PlainBackend) Name() string { return "plain" }

// Extract implements Backend.
func (PlainBackend) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
