package projectrag

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator answers a question grounded on retrieved context.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (Completion, error)
}

// Prompt is what the client sends to the Generator.
type Prompt struct {
	Instructions string // system-level answering rules
	Context      string // retrieved records, one per line, best match first
	Question     string
}

// Completion is the Generator's answer with token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
