package driven

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// AnswerCache stores generated answers keyed by channel, question and
// prompt version, so repeated questions skip the LLM entirely.
// This is an optional service - when nil, caching is disabled.
type AnswerCache interface {
	// Get returns a cached answer. Returns domain.ErrCacheMiss when no
	// fresh entry exists for the key.
	Get(ctx context.Context, channel, question string, promptVersion int) (domain.AnswerResponse, error)

	// Put stores an answer.
	Put(ctx context.Context, channel, question string, promptVersion int, resp domain.AnswerResponse) error

	// InvalidateChannel drops every entry for the channel. Called when a
	// new prompt version is saved or activated.
	InvalidateChannel(ctx context.Context, channel string) error

	// Cleanup removes expired entries and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)

	// Clear drops every entry.
	Clear(ctx context.Context) error

	// Stats reports cache contents for the CLI.
	Stats(ctx context.Context) (CacheStats, error)

	// Close releases resources.
	Close() error
}

// CacheStats summarises cache contents.
type CacheStats struct {
	// Entries is the total number of cached answers.
	Entries int

	// Expired is how many of those are past their TTL.
	Expired int

	// PerChannel maps channel name to live entry count.
	PerChannel map[string]int

	// SizeBytes is the cache file size on disk, when known.
	SizeBytes int64
}
