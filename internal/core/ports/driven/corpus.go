package driven

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// CorpusStore persists transcript chunks and their embeddings, one isolated
// collection per channel. Every operation names the channel it touches;
// there is deliberately no cross-channel query.
type CorpusStore interface {
	// UpsertChunks writes chunks (with embeddings) into the channel's
	// collection, creating the collection if needed. Chunks with the same
	// ID are overwritten.
	UpsertChunks(ctx context.Context, channel string, chunks []domain.Chunk) error

	// Query finds the k most similar chunks to the embedding within the
	// channel's collection. Returns domain.ErrMissingCorpus when the
	// channel has no collection.
	Query(ctx context.Context, channel string, embedding []float32, k int) ([]domain.RetrievalCandidate, error)

	// ListChannels returns every channel that has a collection, with
	// chunk counts.
	ListChannels(ctx context.Context) ([]domain.ChannelInfo, error)

	// Count returns the number of chunks in the channel's collection.
	Count(ctx context.Context, channel string) (int, error)

	// GetAll streams every chunk in the channel's collection, without
	// embeddings. Used by the profile analyzer.
	GetAll(ctx context.Context, channel string) ([]domain.Chunk, error)

	// DeleteChannel removes the channel's collection entirely.
	DeleteChannel(ctx context.Context, channel string) error

	// Close releases resources.
	Close() error
}
