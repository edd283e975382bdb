// Package memory provides an in-memory corpus store with brute-force
// similarity search, for tests and small local corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore keeps one chunk slice per channel, guarded by a RWMutex.
type CorpusStore struct {
	mu       sync.RWMutex
	channels map[string][]domain.Chunk
}

// New creates an empty in-memory corpus store.
func New() *CorpusStore {
	return &CorpusStore{channels: make(map[string][]domain.Chunk)}
}

// UpsertChunks writes chunks into the channel's collection, creating it if
// needed. Chunks with the same (video, index) identity are replaced.
func (s *CorpusStore) UpsertChunks(_ context.Context, channel string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.channels[channel]
	byRef := make(map[domain.ChunkRef]int, len(existing))
	for i, c := range existing {
		byRef[c.Ref()] = i
	}
	for _, c := range chunks {
		c.Channel = channel
		if i, ok := byRef[c.Ref()]; ok {
			existing[i] = c
			continue
		}
		byRef[c.Ref()] = len(existing)
		existing = append(existing, c)
	}
	s.channels[channel] = existing
	return nil
}

// Query runs brute-force cosine similarity over the channel's chunks.
func (s *CorpusStore) Query(_ context.Context, channel string, embedding []float32, k int) ([]domain.RetrievalCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.channels[channel]
	if !ok {
		return nil, fmt.Errorf("query %q: %w", channel, domain.ErrMissingCorpus)
	}
	if k <= 0 || len(chunks) == 0 {
		return nil, nil
	}

	candidates := make([]domain.RetrievalCandidate, 0, len(chunks))
	for _, c := range chunks {
		candidates = append(candidates, domain.RetrievalCandidate{
			Chunk:      c,
			Similarity: cosineSimilarity(embedding, c.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Chunk.UploadDate.After(candidates[j].Chunk.UploadDate)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// ListChannels returns every channel with its chunk count, sorted by name.
func (s *CorpusStore) ListChannels(_ context.Context) ([]domain.ChannelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.ChannelInfo, 0, len(s.channels))
	for name, chunks := range s.channels {
		infos = append(infos, domain.ChannelInfo{Name: name, Chunks: len(chunks)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Count returns the number of chunks in the channel's collection.
func (s *CorpusStore) Count(_ context.Context, channel string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.channels[channel]
	if !ok {
		return 0, fmt.Errorf("count %q: %w", channel, domain.ErrMissingCorpus)
	}
	return len(chunks), nil
}

// GetAll returns every chunk in the channel's collection, without
// embeddings.
func (s *CorpusStore) GetAll(_ context.Context, channel string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.channels[channel]
	if !ok {
		return nil, fmt.Errorf("get all %q: %w", channel, domain.ErrMissingCorpus)
	}
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = nil
		out[i] = c
	}
	return out, nil
}

// DeleteChannel removes the channel's collection entirely.
func (s *CorpusStore) DeleteChannel(_ context.Context, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channel)
	return nil
}

// Close releases resources.
func (s *CorpusStore) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
