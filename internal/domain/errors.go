package domain

import (
	"errors"
)

var (
	// ErrInvalidInput signals a malformed or empty client request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRetrieval signals that the grounding documents could not be retrieved.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals a language model failure or timeout.
	ErrGeneration = errors.New("generation failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a language model provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
)
