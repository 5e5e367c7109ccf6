package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
	"github.com/kailas-cloud/projectrag/internal/index"
)

// --- Mocks ---

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 2}, nil
}

// mockGenerator echoes the context length so tests can check what it was given.
type mockGenerator struct {
	err   error
	calls int
	last  domain.GenerationRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{
		Text:             fmt.Sprintf("context length %d", len(req.Context)),
		PromptTokens:     10,
		CompletionTokens: 5,
	}, nil
}

type mockSource struct {
	projects []record.Project
	tasks    []record.Task
	users    []record.User
	err      error
}

func (m *mockSource) ListProjects(_ context.Context) ([]record.Project, error) {
	return m.projects, m.err
}

func (m *mockSource) ListTasks(_ context.Context) ([]record.Task, error) {
	return m.tasks, nil
}

func (m *mockSource) ListUsers(_ context.Context) ([]record.User, error) {
	return m.users, nil
}

// newCache takes separate embedders so tests can fail queries without failing the build.
func newCache(src index.DataSource, docEmb, queryEmb domain.Embedder) *index.Cache {
	return index.NewCache(src, docEmb, queryEmb, zap.NewNop())
}
