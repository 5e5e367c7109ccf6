package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
	"github.com/kailas-cloud/projectrag/internal/logger"
)

// Instructions is the system prompt sent with every question.
const Instructions = "You are an assistant for a project tracker. " +
	"Answer the question using only the information in the context. " +
	"If the context does not contain the answer, say that you do not know. " +
	"Write plain prose without lists, markdown or quotes. " +
	"Use periods as the only punctuation. " +
	"Write dates as YYYY-MM-DD."

// Response is an answer together with the documents it was grounded on.
type Response struct {
	Text    string
	Sources []index.Hit
	IndexID string
}

// Service answers questions about tracker data with retrieval-augmented generation.
type Service struct {
	indexes   IndexProvider
	generator Generator
	topK      int
	timeout   time.Duration
}

// New creates a chat service. topK <= 0 falls back to index.DefaultTopK;
// timeout <= 0 leaves the caller's deadline untouched.
func New(indexes IndexProvider, generator Generator, topK int, timeout time.Duration) *Service {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	return &Service{indexes: indexes, generator: generator, topK: topK, timeout: timeout}
}

// Answer returns the generated answer text verbatim.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	resp, err := s.Respond(ctx, question)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Respond retrieves the top-k documents for question, grounds the generator
// on them and returns its answer with the sources used.
func (s *Service) Respond(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ix, err := s.indexes.GetOrBuild(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("get index: %w", err)
	}

	hits, err := ix.Query(ctx, question, s.topK)
	if err != nil {
		return Response{}, fmt.Errorf("query index: %w", err)
	}

	req := domain.GenerationRequest{
		Instructions: Instructions,
		Context:      groundingContext(hits),
		Question:     question,
	}

	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(res.PromptTokens + res.CompletionTokens)

	logger.FromContext(ctx).Debug("Answered question",
		zap.String("index_id", ix.ID()),
		zap.Int("sources", len(hits)),
		zap.Int("context_len", len(req.Context)),
	)

	return Response{Text: res.Text, Sources: hits, IndexID: ix.ID()}, nil
}

// groundingContext joins hit texts in rank order, one per line.
func groundingContext(hits []index.Hit) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Document.Text()
	}
	return strings.Join(texts, "\n")
}
