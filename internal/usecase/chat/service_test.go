package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

func alphaSource() *mockSource {
	end := time.Now().AddDate(0, 0, 15)
	return &mockSource{
		projects: []record.Project{{
			ID:                  1,
			Name:                "Project Alpha",
			Status:              "active",
			PercentageCompleted: 45.0,
			EndDate:             &end,
			Owner:               &record.Ref{ID: 1, Name: "Alice"},
		}},
		users: []record.User{{ID: 1, Name: "Alice", Email: "alice@example.com"}},
	}
}

func TestAnswer_GroundsOnRetrievedRecords(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{}
	svc := New(newCache(alphaSource(), emb, emb), gen, 3, 0)

	answer, err := svc.Answer(context.Background(), "what is the status of Project Alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gen.last.Context, "Project Alpha") {
		t.Errorf("context missing project name: %q", gen.last.Context)
	}
	if !strings.Contains(gen.last.Context, "active") {
		t.Errorf("context missing status: %q", gen.last.Context)
	}
	if gen.last.Question != "what is the status of Project Alpha" {
		t.Errorf("unexpected question: %q", gen.last.Question)
	}
	if gen.last.Instructions != Instructions {
		t.Error("expected formatting instructions")
	}
	if want := "context length " + strconv.Itoa(len(gen.last.Context)); answer != want {
		t.Errorf("answer not returned verbatim: got %q, want %q", answer, want)
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		emb := &mockEmbedder{vec: []float32{1, 0}}
		gen := &mockGenerator{}
		svc := New(newCache(alphaSource(), emb, emb), gen, 3, 0)

		_, err := svc.Answer(context.Background(), q)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", q, err)
		}
		if emb.calls != 0 {
			t.Errorf("%q: expected no embedding calls, got %d", q, emb.calls)
		}
		if gen.calls != 0 {
			t.Errorf("%q: expected no generation calls, got %d", q, gen.calls)
		}
	}
}

func TestAnswer_QueryEmbeddingFails(t *testing.T) {
	docEmb := &mockEmbedder{vec: []float32{1, 0}}
	queryEmb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	gen := &mockGenerator{}
	svc := New(newCache(alphaSource(), docEmb, queryEmb), gen, 3, 0)

	_, err := svc.Answer(context.Background(), "what is the status of Project Alpha")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error in chain, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be called, got %d calls", gen.calls)
	}
}

func TestAnswer_DataSourceFails(t *testing.T) {
	src := alphaSource()
	src.err = errors.New("no such table: projects")
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{}
	svc := New(newCache(src, emb, emb), gen, 3, 0)

	_, err := svc.Answer(context.Background(), "who owns Project Alpha")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("generator must not be called")
	}
}

func TestAnswer_GenerationFails(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{err: domain.ErrLLMProviderError}
	svc := New(newCache(alphaSource(), emb, emb), gen, 3, 0)

	answer, err := svc.Answer(context.Background(), "who owns Project Alpha")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected cause in chain, got %v", err)
	}
	if answer != "" {
		t.Errorf("expected no partial answer, got %q", answer)
	}
}

func TestAnswer_Timeout(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{err: context.DeadlineExceeded}
	svc := New(newCache(alphaSource(), emb, emb), gen, 3, time.Second)

	_, err := svc.Answer(context.Background(), "who owns Project Alpha")
	if !errors.Is(err, domain.ErrGeneration) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrGeneration wrapping DeadlineExceeded, got %v", err)
	}
}

func TestRespond_RankOrderAndTopK(t *testing.T) {
	src := alphaSource()
	src.tasks = []record.Task{
		{ID: 1, Name: "Kickoff", Status: "open"},
		{ID: 2, Name: "Review", Status: "done"},
	}
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{}
	svc := New(newCache(src, emb, emb), gen, 2, 0)

	resp, err := svc.Respond(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if resp.IndexID == "" {
		t.Error("expected index id")
	}

	// All scores tie, so rank order is insertion order: project, then first task.
	lines := strings.Split(gen.last.Context, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 context lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Project: Project Alpha.") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Task: Kickoff.") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestRespond_EmptyIndex(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	gen := &mockGenerator{}
	svc := New(newCache(&mockSource{}, emb, emb), gen, 3, 0)

	resp, err := svc.Respond(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Sources) != 0 || gen.last.Context != "" {
		t.Errorf("expected empty grounding, got %d sources, context %q", len(resp.Sources), gen.last.Context)
	}
	if emb.calls != 0 {
		t.Errorf("empty index must not embed, got %d calls", emb.calls)
	}
}

func TestRespond_RecordsUsage(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	svc := New(newCache(alphaSource(), emb, emb), &mockGenerator{}, 3, 0)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Respond(ctx, "anything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.GenerationTokens != 15 {
		t.Errorf("expected 15 generation tokens, got %d", usage.GenerationTokens)
	}
	if usage.EmbeddingTokens != 2 {
		t.Errorf("expected 2 query embedding tokens, got %d", usage.EmbeddingTokens)
	}
}

func TestNew_DefaultTopK(t *testing.T) {
	svc := New(nil, nil, 0, 0)
	if svc.topK != 3 {
		t.Errorf("expected default top k 3, got %d", svc.topK)
	}
}
