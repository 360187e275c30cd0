// Package pipeline turns a catalog publication into a cached analysis: it
// resolves sources, fetches content with fallback, extracts text from PDFs,
// summarizes, and persists the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/fetch"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/logging"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/pdf"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/source"
)

// PreviewLimit is the maximum length, in characters, of a text preview.
const PreviewLimit = 2000

// Resolver orders acquisition attempts.
type Resolver interface {
	Resolve(pub publication.Ref) []source.Attempt
}

// Fetcher acquires raw content.
type Fetcher interface {
	FetchStructured(ctx context.Context, id string) (*fetch.Content, error)
	FetchPDF(ctx context.Context, pub publication.Ref) (string, error)
}

// Extractor turns a PDF file into clean text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Summarizer produces the formatted analysis. It must not fail.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

// Cache stores analysis results by publication id.
type Cache interface {
	Get(pubID int) (*cache.AnalysisResult, error)
	Put(pubID int, result *cache.AnalysisResult) error
}

// Indexer receives every newly cached result.
type Indexer interface {
	Upsert(result *cache.AnalysisResult) error
}

// Deps are the collaborators of a Pipeline. Index, UploadDir and Now are optional.
type Deps struct {
	Resolver   Resolver
	Fetcher    Fetcher
	Extractor  Extractor
	Summarizer Summarizer
	Cache      Cache
	Index      Indexer
	UploadDir  string
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Pipeline processes publications. It is safe for concurrent use; at most one
// computation runs per publication id at a time.
type Pipeline struct {
	resolver   Resolver
	fetcher    Fetcher
	extractor  Extractor
	summarizer Summarizer
	cache      Cache
	index      Indexer
	uploadDir  string
	logger     zerolog.Logger
	now        func() time.Time

	group singleflight.Group
}

// New creates a pipeline from deps.
func New(d Deps) (*Pipeline, error) {
	switch {
	case d.Resolver == nil:
		return nil, errors.New("pipeline: resolver is required")
	case d.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case d.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case d.Summarizer == nil:
		return nil, errors.New("pipeline: summarizer is required")
	case d.Cache == nil:
		return nil, errors.New("pipeline: cache is required")
	}

	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		resolver:   d.Resolver,
		fetcher:    d.Fetcher,
		extractor:  d.Extractor,
		summarizer: d.Summarizer,
		cache:      d.Cache,
		index:      d.Index,
		uploadDir:  d.UploadDir,
		logger:     d.Logger.With().Str(logging.FieldComponent, "pipeline").Logger(),
		now:        now,
	}, nil
}

// ProcessPublication returns the analysis for pub, computing and caching it
// on a miss. A cached result is returned without any network or model work.
//
// If the result was computed but could not be persisted, both the result and
// an error wrapping cache.ErrWriteFailed are returned. If ctx is done before
// the result is ready, ctx.Err() is returned and the computation continues
// for other callers and the cache.
func (p *Pipeline) ProcessPublication(ctx context.Context, pub publication.Ref) (*cache.AnalysisResult, error) {
	if err := pub.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidPublication, PubID: pub.ID, Err: err}
	}

	logger := p.logger.With().
		Str(logging.FieldCorrelationID, uuid.New().String()).
		Int(logging.FieldPubID, pub.ID).
		Logger()

	if result := p.cached(pub.ID, logger); result != nil {
		logger.Debug().Msg("cache hit")
		return result, nil
	}

	// The computation ignores caller cancellation: a caller that gives up
	// stops waiting and the others still get the result. Client timeouts
	// bound the work.
	ch := p.group.DoChan(strconv.Itoa(pub.ID), func() (interface{}, error) {
		return p.compute(context.WithoutCancel(ctx), pub, logger)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Debug().Msg("joined in-flight computation")
		}
		result, _ := res.Val.(*cache.AnalysisResult)
		return result, res.Err
	case <-ctx.Done():
		logger.Debug().Err(ctx.Err()).Msg("caller gave up waiting")
		return nil, ctx.Err()
	}
}

// cached returns the cached result, treating unreadable entries as misses.
func (p *Pipeline) cached(pubID int, logger zerolog.Logger) *cache.AnalysisResult {
	result, err := p.cache.Get(pubID)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable cache entry")
		return nil
	}
	return result
}

func (p *Pipeline) compute(ctx context.Context, pub publication.Ref, logger zerolog.Logger) (result *cache.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, panicError(logger, pub.ID, r)
		}
	}()

	// Another caller may have finished between our cache check and acquiring the key.
	if cachedResult := p.cached(pub.ID, logger); cachedResult != nil {
		return cachedResult, nil
	}

	start := p.now()
	content, err := p.acquire(ctx, pub, logger)
	if err != nil {
		return nil, err
	}

	result = &cache.AnalysisResult{
		PubID:       pub.ID,
		Title:       pub.Title,
		Link:        pub.Link,
		Source:      string(content.Origin),
		Summary:     p.summarizer.Summarize(ctx, content.RawText),
		TextPreview: preview(content.RawText),
		CreatedAt:   p.now().UTC(),
	}
	if content.Origin == fetch.OriginPDF {
		result.DOI = pdf.FindDOI(content.RawText)
	}

	if err := p.cache.Put(pub.ID, result); err != nil {
		logger.Error().Err(err).Msg("failed to cache analysis")
		return result, err
	}
	if p.index != nil {
		if err := p.index.Upsert(result); err != nil {
			logger.Warn().Err(err).Msg("failed to index analysis")
		}
	}

	logger.Info().
		Str("source", result.Source).
		Int("chars", len(content.RawText)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("analysis complete")
	return result, nil
}

// acquire tries each resolved attempt in order. Fetch failures fall through to
// the next attempt; a downloaded PDF that cannot be read is fatal.
func (p *Pipeline) acquire(ctx context.Context, pub publication.Ref, logger zerolog.Logger) (*fetch.Content, error) {
	var lastErr error
	for _, attempt := range p.resolver.Resolve(pub) {
		switch attempt.Kind {
		case source.StructuredAPI:
			content, err := p.fetcher.FetchStructured(ctx, attempt.ID)
			if err != nil {
				logger.Warn().Err(err).Str("attempt", string(attempt.Kind)).Msg("fetch attempt failed")
				lastErr = err
				continue
			}
			return content, nil

		case source.PDFDownload:
			path, err := p.fetcher.FetchPDF(ctx, pub)
			if err != nil {
				logger.Warn().Err(err).Str("attempt", string(attempt.Kind)).Msg("fetch attempt failed")
				lastErr = err
				continue
			}
			text, err := p.extractor.Extract(path)
			if err != nil {
				return nil, &Error{Kind: KindExtractionFailed, PubID: pub.ID, Err: err}
			}
			return &fetch.Content{Origin: fetch.OriginPDF, RawText: text, SourcePDFPath: path}, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no acquisition attempts")
	}
	return nil, &Error{Kind: KindNoSource, PubID: pub.ID, Err: lastErr}
}

// panicError logs a recovered panic and converts it to a KindInternal error.
func panicError(logger zerolog.Logger, pubID int, r interface{}) error {
	logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("analysis panicked")
	return &Error{Kind: KindInternal, PubID: pubID, Err: fmt.Errorf("panic: %v", r)}
}

// preview returns the first PreviewLimit characters of text.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLimit {
		return text
	}
	return string([]rune(text)[:PreviewLimit])
}
