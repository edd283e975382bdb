package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCorpus indicates a channel has no stored chunks.
	// Callers fall back to empty profiles and the default prompt.
	ErrMissingCorpus = errors.New("channel has no corpus")

	// ErrVersionNotFound indicates a prompt version does not exist for a channel.
	ErrVersionNotFound = errors.New("prompt version not found")

	// ErrLLMUnavailable indicates the generation service is not configured.
	// Expansion, re-ranking and answering degrade without it.
	ErrLLMUnavailable = errors.New("generation service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Similarity search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationFailed indicates the final answer call failed.
	// The answer service converts this into an apology response.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrCacheMiss indicates no usable cached response exists.
	ErrCacheMiss = errors.New("cache miss")
)
