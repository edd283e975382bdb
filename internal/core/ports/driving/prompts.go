package driving

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// PromptService manages channel prompt lifecycles: synthesis from a
// profile, versioned persistence and activation.
type PromptService interface {
	// Generate analyzes the channel and saves a freshly synthesized prompt
	// as the new active version.
	Generate(ctx context.Context, channel string) (domain.PromptVersion, error)

	// Active returns the channel's active prompt, falling back to the
	// built-in default when the channel has no versions.
	Active(ctx context.Context, channel string) (domain.PromptVersion, error)

	// SaveManual persists a hand-edited prompt as the next version and
	// marks it active.
	SaveManual(ctx context.Context, prompt domain.PromptVersion) (int, error)

	// Versions lists all stored versions for the channel, oldest first.
	Versions(ctx context.Context, channel string) ([]domain.PromptVersion, error)

	// SetActive switches the active pointer to an existing version.
	SetActive(ctx context.Context, channel string, version int) error

	// Delete removes a stored version, repointing the active version to
	// the highest remaining one when needed.
	Delete(ctx context.Context, channel string, version int) error

	// RegenerateAll runs Generate for every indexed channel, continuing
	// past per-channel failures. Results are reported per channel.
	RegenerateAll(ctx context.Context) []RegenerateResult
}

// RegenerateResult is one channel's outcome from a batch regeneration.
type RegenerateResult struct {
	Channel string
	Version int
	Err     error
}
