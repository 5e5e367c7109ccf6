package chi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
	"github.com/kailas-cloud/projectrag/internal/storage/sqlite"
	chatuc "github.com/kailas-cloud/projectrag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/projectrag/internal/usecase/health"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
)

// --- Mocks ---

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 3}, nil
}

type mockGenerator struct {
	text  string
	err   error
	block bool
	calls int
}

func (m *mockGenerator) Generate(ctx context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return domain.GenerationResult{}, ctx.Err()
	}
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.text, PromptTokens: 10, CompletionTokens: 5}, nil
}

// --- Fixture ---

type fixture struct {
	handler  http.Handler
	store    *sqlite.Store
	cache    *index.Cache
	docEmb   *mockEmbedder
	queryEmb *mockEmbedder
	gen      *mockGenerator
}

type fixtureOpts struct {
	timeout  time.Duration
	queryErr error
	gen      *mockGenerator
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	store, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:    store,
		docEmb:   &mockEmbedder{},
		queryEmb: &mockEmbedder{err: opts.queryErr},
		gen:      opts.gen,
	}
	if f.gen == nil {
		f.gen = &mockGenerator{text: "Project Alpha is active."}
	}

	log := zap.NewNop()
	f.cache = index.NewCache(store, f.docEmb, f.queryEmb, log)
	srv := NewServer(
		chatuc.New(f.cache, f.gen, 3, opts.timeout),
		f.cache,
		trackeruc.New(store),
		healthuc.New(store, nil, nil),
		log,
	)

	r := chi.NewRouter()
	srv.Routes(r)
	f.handler = r
	return f
}
