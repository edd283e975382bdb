package driven

import (
	"context"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// PromptStore persists versioned channel prompts.
//
// Versions form a gapless sequence per channel starting at 1. Saved
// versions are immutable; changing a prompt means saving a new version.
// One version per channel is marked active.
type PromptStore interface {
	// GetActive returns the channel's active prompt version.
	// Returns domain.ErrNotFound when the channel has no versions.
	GetActive(ctx context.Context, channel string) (domain.PromptVersion, error)

	// Get returns a specific version.
	// Returns domain.ErrVersionNotFound when the version does not exist.
	Get(ctx context.Context, channel string, version int) (domain.PromptVersion, error)

	// Save assigns the next version number, persists the prompt and marks
	// it active. The stored version number is returned.
	Save(ctx context.Context, prompt domain.PromptVersion) (int, error)

	// ListVersions returns all versions for the channel, oldest first.
	ListVersions(ctx context.Context, channel string) ([]domain.PromptVersion, error)

	// SetActive marks an existing version as active.
	// Returns domain.ErrVersionNotFound when the version does not exist.
	SetActive(ctx context.Context, channel string, version int) error

	// ActiveVersion returns the active version number without loading the
	// full record. Returns domain.ErrNotFound when the channel has no versions.
	ActiveVersion(ctx context.Context, channel string) (int, error)

	// Delete removes a stored version. If the deleted version was active
	// the pointer moves to the highest remaining version.
	// Returns domain.ErrVersionNotFound when the version does not exist.
	Delete(ctx context.Context, channel string, version int) error

	// Close releases resources (e.g. a directory watcher).
	Close() error
}
