package domain

import "context"

// GenerationRequest is a single grounded question for a language model.
type GenerationRequest struct {
	// Instructions constrain the shape of the answer (sent as the system prompt).
	Instructions string
	// Context is the retrieved grounding text, in retrieval rank order.
	Context string
	// Question is the user's question, trimmed.
	Question string
}

// GenerationResult is the model's answer plus token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces a free-text answer for a grounded question.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// UserPrompt renders the context and question into a single user message.
func (r GenerationRequest) UserPrompt() string {
	return "Context:\n" + r.Context + "\n\nQuestion: " + r.Question
}
