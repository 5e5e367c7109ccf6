package index

import (
	"context"
	"sync"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// mockEmbedder maps texts to fixed vectors and counts calls.
type mockEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	fallback   []float32
	err        error
	embedCalls int
	texts      []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return domain.EmbeddingResult{Embedding: m.fallback, TotalTokens: 1}, nil
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// mockBatchEmbedder additionally implements domain.BatchEmbedder.
type mockBatchEmbedder struct {
	mockEmbedder
	batchCalls int
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		m.mu.Lock()
		v, ok := m.vectors[t]
		m.mu.Unlock()
		if !ok {
			v = m.fallback
		}
		out[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

// mockSource is an in-memory DataSource that counts snapshot reads.
type mockSource struct {
	mu       sync.Mutex
	projects []record.Project
	tasks    []record.Task
	users    []record.User
	err      error
	reads    int
	// gate, when set, blocks ListProjects until closed.
	gate chan struct{}
}

func (m *mockSource) ListProjects(_ context.Context) ([]record.Project, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.projects, m.err
}

func (m *mockSource) ListTasks(_ context.Context) ([]record.Task, error) {
	return m.tasks, nil
}

func (m *mockSource) ListUsers(_ context.Context) ([]record.User, error) {
	return m.users, nil
}

func (m *mockSource) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
