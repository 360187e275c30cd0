package pipeline

import (
	"context"
	"errors"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

// Response is the boundary form of a pipeline call: the flattened result on
// success, or only an error message on failure.
type Response struct {
	*cache.AnalysisResult
	Error string `json:"error,omitempty"`
}

// Respond runs ProcessPublication and folds the outcome into a Response.
// A result that could not be cached is still returned as a success.
func (p *Pipeline) Respond(ctx context.Context, pub publication.Ref) Response {
	result, err := p.ProcessPublication(ctx, pub)
	if err != nil && (result == nil || !errors.Is(err, cache.ErrWriteFailed)) {
		return ErrorPayload(err)
	}
	return Response{AnalysisResult: result}
}

// ErrorPayload builds the failure form of a Response.
func ErrorPayload(err error) Response {
	if err == nil {
		return Response{Error: "unknown error"}
	}
	return Response{Error: err.Error()}
}
