package driving

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// AnalyzerService builds statistical profiles of channel corpora.
type AnalyzerService interface {
	// Analyze reads the channel's full corpus and derives its profile.
	// Returns domain.ErrMissingCorpus when the channel has no collection.
	Analyze(ctx context.Context, channel string) (domain.ChannelProfile, error)

	// ListChannels returns every channel with an indexed corpus.
	ListChannels(ctx context.Context) ([]domain.ChannelInfo, error)
}
