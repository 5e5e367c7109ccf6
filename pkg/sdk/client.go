package projectrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
	"github.com/kailas-cloud/projectrag/internal/storage/sqlite"
	chatuc "github.com/kailas-cloud/projectrag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/projectrag/internal/usecase/health"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
)

// Internal interfaces for substitution in tests.
type chatUseCase interface {
	Respond(ctx context.Context, question string) (chatuc.Response, error)
}

type indexCache interface {
	Current() (*index.Index, bool)
	Invalidate()
}

// Client is the projectrag SDK entry point.
type Client struct {
	store      *sqlite.Store
	chatSvc    chatUseCase
	indexes    indexCache
	trackerSvc trackerUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New opens the tracker database and wires the retrieval pipeline.
// No provider is called until the first Ask.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{topK: index.DefaultTopK}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dbPath == "" {
		return nil, errors.New("projectrag: database path required (use WithDatabase)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("projectrag: embedder required (use WithEmbedder)")
	}
	if cfg.generator == nil {
		return nil, errors.New("projectrag: generator required (use WithGenerator)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.dbPath)
	if err != nil {
		return nil, fmt.Errorf("projectrag: open database: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store *sqlite.Store, cfg *clientConfig, obs *observer) *Client {
	docEmb := &embedderAdapter{inner: cfg.embedder}
	queryEmb := docEmb
	if cfg.queryEmbedder != nil {
		queryEmb = &embedderAdapter{inner: cfg.queryEmbedder}
	}

	indexes := index.NewCache(store, docEmb, queryEmb, zap.NewNop())

	var checker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(interface{ HealthCheck(context.Context) error }); ok {
		checker = hc
	}

	return &Client{
		store:      store,
		chatSvc:    chatuc.New(indexes, &generatorAdapter{inner: cfg.generator}, cfg.topK, cfg.requestTimeout),
		indexes:    indexes,
		trackerSvc: trackeruc.New(store),
		healthSvc:  healthuc.New(store, nil, checker),
		obs:        obs,
	}
}

// Close releases the database.
func (c *Client) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// Source is a tracker record that grounded an answer.
type Source struct {
	Kind  string // "project", "task" or "user"
	ID    int64
	Text  string
	Score float32 // cosine similarity to the question
}

// Answer is the model's reply with the records it was given, best match first.
type Answer struct {
	Text    string
	Sources []Source
	IndexID string
}

// Ask answers a question about the tracker. The index is built on first use
// and reused until InvalidateIndex.
func (c *Client) Ask(ctx context.Context, question string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err, "sources", len(ans.Sources)) }()

	resp, err := c.chatSvc.Respond(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}

	sources := make([]Source, len(resp.Sources))
	for i, h := range resp.Sources {
		sources[i] = Source{
			Kind:  string(h.Document.Type()),
			ID:    h.Document.ID(),
			Text:  h.Document.Text(),
			Score: h.Score,
		}
	}
	return Answer{Text: resp.Text, Sources: sources, IndexID: resp.IndexID}, nil
}

// IndexInfo describes the currently cached index.
type IndexInfo struct {
	Built      bool
	ID         string
	Documents  int
	Dimensions int
	BuiltAt    time.Time
}

// Index reports the cached index without building it.
func (c *Client) Index() IndexInfo {
	ix, ok := c.indexes.Current()
	if !ok {
		return IndexInfo{}
	}
	return IndexInfo{
		Built:      true,
		ID:         ix.ID(),
		Documents:  ix.Len(),
		Dimensions: ix.Dimensions(),
		BuiltAt:    ix.BuiltAt(),
	}
}

// InvalidateIndex drops the cached index; the next Ask rebuilds it.
func (c *Client) InvalidateIndex() {
	start := time.Now()
	c.indexes.Invalidate()
	c.obs.observe("index.invalidate", start, nil)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps public Generator to satisfy the chat use case.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(
	ctx context.Context, req domain.GenerationRequest,
) (domain.GenerationResult, error) {
	r, err := a.inner.Generate(ctx, Prompt{
		Instructions: req.Instructions,
		Context:      req.Context,
		Question:     req.Question,
	})
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}
