// Package summarize condenses publication text into a two-section analysis:
// methodology and results, then knowledge gaps.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// NoTextSentinel is returned for empty input.
	NoTextSentinel = "No text available for summarization."

	// SummaryUnavailable replaces the summary section when every chunk failed.
	SummaryUnavailable = "Summary unavailable: the model produced no output for this text."

	// GapsUnavailable replaces the gaps section when the second pass failed.
	GapsUnavailable = "Knowledge gap analysis unavailable."

	HeadingSummary = "## Methodology & Results"
	HeadingGaps    = "## Knowledge Gaps"

	methodologyInstruction = "Summarize the methodology, methods, key results and discussion of the following research text."
	gapsInstruction        = "Identify the limitations, open questions and knowledge gaps in the following research summary."
)

// ErrInvalidOptions is returned by NewEngine for unusable options.
var ErrInvalidOptions = errors.New("invalid summarization options")

// Options bounds chunking and generation.
type Options struct {
	ChunkSize     int // characters per chunk
	MaxChunks     int // chunks summarized per document
	MaxTokens     int // per-chunk output bounds
	MinTokens     int
	GapsMaxTokens int // knowledge-gaps pass output bounds
	GapsMinTokens int
}

// DefaultOptions returns the standard bounds.
func DefaultOptions() Options {
	return Options{
		ChunkSize:     1000,
		MaxChunks:     3,
		MaxTokens:     150,
		MinTokens:     40,
		GapsMaxTokens: 120,
		GapsMinTokens: 30,
	}
}

// Validate checks that all bounds are positive and consistent.
func (o Options) Validate() error {
	switch {
	case o.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidOptions)
	case o.MaxChunks <= 0:
		return fmt.Errorf("%w: max chunks must be positive", ErrInvalidOptions)
	case o.MinTokens <= 0 || o.MaxTokens < o.MinTokens:
		return fmt.Errorf("%w: need 0 < min tokens (%d) <= max tokens (%d)", ErrInvalidOptions, o.MinTokens, o.MaxTokens)
	case o.GapsMinTokens <= 0 || o.GapsMaxTokens < o.GapsMinTokens:
		return fmt.Errorf("%w: need 0 < gaps min tokens (%d) <= gaps max tokens (%d)", ErrInvalidOptions, o.GapsMinTokens, o.GapsMaxTokens)
	}
	return nil
}

// GenerateOptions bounds a single model call.
type GenerateOptions struct {
	MaxTokens int
}

// Model generates text for a prompt. Implementations must decode
// deterministically so that identical input yields identical output.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Engine runs the chunked summary pass and the knowledge-gaps pass.
type Engine struct {
	model  Model
	opts   Options
	logger zerolog.Logger
}

// NewEngine creates an engine. It fails if opts do not validate.
func NewEngine(model Model, opts Options, logger zerolog.Logger) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no model", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		model:  model,
		opts:   opts,
		logger: logger.With().Str("component", "summarize").Str("model", model.Name()).Logger(),
	}, nil
}

// Summarize returns the formatted analysis of text. It never fails: model
// errors degrade individual sections.
func (e *Engine) Summarize(ctx context.Context, text string) string {
	chunks := Chunk(text, e.opts.ChunkSize)
	if len(chunks) == 0 {
		return NoTextSentinel
	}
	if len(chunks) > e.opts.MaxChunks {
		e.logger.Debug().Int("chunks", len(chunks)).Int("max_chunks", e.opts.MaxChunks).Msg("truncating chunks")
		chunks = chunks[:e.opts.MaxChunks]
	}

	var parts []string
	for i, chunk := range chunks {
		out, err := e.generate(ctx, methodologyInstruction, chunk, e.opts.MinTokens, e.opts.MaxTokens)
		if err != nil {
			e.logger.Warn().Err(err).Int("chunk", i).Msg("chunk summarization failed")
			continue
		}
		parts = append(parts, out)
	}

	if len(parts) == 0 {
		return format(SummaryUnavailable, GapsUnavailable)
	}
	summary := strings.Join(parts, " ")

	gaps, err := e.generate(ctx, gapsInstruction, summary, e.opts.GapsMinTokens, e.opts.GapsMaxTokens)
	if err != nil {
		e.logger.Warn().Err(err).Msg("knowledge gap pass failed")
		gaps = GapsUnavailable
	}
	return format(summary, gaps)
}

func (e *Engine) generate(ctx context.Context, instruction, input string, minTokens, maxTokens int) (string, error) {
	out, err := e.model.Generate(ctx, buildPrompt(instruction, input, minTokens, maxTokens), GenerateOptions{MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("model returned empty output")
	}
	return out, nil
}

// buildPrompt expresses the length bounds as an instruction; the model APIs
// only enforce a maximum.
func buildPrompt(instruction, input string, minTokens, maxTokens int) string {
	return fmt.Sprintf("%s Respond in plain prose of at least %d and at most %d tokens.\n\n%s",
		instruction, minTokens, maxTokens, input)
}

func format(summary, gaps string) string {
	return HeadingSummary + "\n\n" + summary + "\n\n" + HeadingGaps + "\n\n" + gaps
}
