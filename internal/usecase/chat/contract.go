package chat

import (
	"context"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
)

// IndexProvider returns the current vector index, building it if needed.
type IndexProvider interface {
	GetOrBuild(ctx context.Context) (*index.Index, error)
}

// Generator produces an answer from a grounding context and a question.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
