package driving

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// AskService answers questions over a single channel's corpus.
type AskService interface {
	// Ask expands the question, retrieves supporting chunks from the
	// channel's collection and generates a grounded answer.
	Ask(ctx context.Context, channel, question string) (domain.AnswerResponse, error)
}
