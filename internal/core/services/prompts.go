package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driving"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Ensure PromptService implements the interface.
var _ driving.PromptService = (*PromptService)(nil)

// PromptService manages channel prompt lifecycles. Saving or activating a
// version invalidates the channel's answer cache, since cached answers are
// bound to the prompt version that produced them.
type PromptService struct {
	analyzer    driving.AnalyzerService
	synthesizer *Synthesizer
	store       driven.PromptStore
	cache       driven.AnswerCache
}

// NewPromptService creates a new prompt service. cache may be nil.
func NewPromptService(
	analyzer driving.AnalyzerService,
	synthesizer *Synthesizer,
	store driven.PromptStore,
	cache driven.AnswerCache,
) *PromptService {
	return &PromptService{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		store:       store,
		cache:       cache,
	}
}

// Generate analyzes the channel, synthesizes a prompt and saves it as the
// new active version.
func (s *PromptService) Generate(ctx context.Context, channel string) (domain.PromptVersion, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return domain.PromptVersion{}, fmt.Errorf("generate prompt: %w: empty channel name", domain.ErrInvalidInput)
	}

	profile, err := s.analyzer.Analyze(ctx, channel)
	if err != nil {
		return domain.PromptVersion{}, fmt.Errorf("generate prompt for %q: %w", channel, err)
	}

	prompt := s.synthesizer.Synthesize(profile)
	version, err := s.store.Save(ctx, prompt)
	if err != nil {
		return domain.PromptVersion{}, fmt.Errorf("save prompt for %q: %w", channel, err)
	}
	prompt.Version = version
	logger.Info("Saved prompt v%d for %q", version, channel)

	s.invalidate(ctx, channel)
	return prompt, nil
}

// Active returns the channel's active prompt, falling back to the built-in
// default when none is stored.
func (s *PromptService) Active(ctx context.Context, channel string) (domain.PromptVersion, error) {
	prompt, err := s.store.GetActive(ctx, channel)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultPrompt(channel), nil
	}
	if err != nil {
		return domain.PromptVersion{}, fmt.Errorf("load active prompt for %q: %w", channel, err)
	}
	return prompt, nil
}

// SaveManual persists a hand-edited prompt as the next version and marks
// it active.
func (s *PromptService) SaveManual(ctx context.Context, prompt domain.PromptVersion) (int, error) {
	if strings.TrimSpace(prompt.Channel) == "" {
		return 0, fmt.Errorf("save prompt: %w: empty channel name", domain.ErrInvalidInput)
	}
	if err := prompt.Validate(); err != nil {
		return 0, fmt.Errorf("save prompt: %w", err)
	}
	prompt.AutoGenerated = false

	version, err := s.store.Save(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("save prompt for %q: %w", prompt.Channel, err)
	}
	s.invalidate(ctx, prompt.Channel)
	return version, nil
}

// Versions lists all stored versions for the channel, oldest first.
func (s *PromptService) Versions(ctx context.Context, channel string) ([]domain.PromptVersion, error) {
	versions, err := s.store.ListVersions(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("list prompt versions for %q: %w", channel, err)
	}
	return versions, nil
}

// SetActive switches the active pointer to an existing version.
func (s *PromptService) SetActive(ctx context.Context, channel string, version int) error {
	if err := s.store.SetActive(ctx, channel, version); err != nil {
		return fmt.Errorf("activate prompt v%d for %q: %w", version, channel, err)
	}
	s.invalidate(ctx, channel)
	return nil
}

// Delete removes a stored version. The store repoints the active version
// when the deleted one was active, so cached answers for the channel are
// invalidated as well.
func (s *PromptService) Delete(ctx context.Context, channel string, version int) error {
	if err := s.store.Delete(ctx, channel, version); err != nil {
		return fmt.Errorf("delete prompt v%d for %q: %w", version, channel, err)
	}
	s.invalidate(ctx, channel)
	return nil
}

// RegenerateAll runs Generate for every indexed channel. A failing channel
// is recorded and the batch continues.
func (s *PromptService) RegenerateAll(ctx context.Context) []driving.RegenerateResult {
	logger.Section("Batch Prompt Regeneration")

	channels, err := s.analyzer.ListChannels(ctx)
	if err != nil {
		return []driving.RegenerateResult{{Err: fmt.Errorf("list channels: %w", err)}}
	}

	results := make([]driving.RegenerateResult, 0, len(channels))
	for _, ch := range channels {
		prompt, err := s.Generate(ctx, ch.Name)
		result := driving.RegenerateResult{Channel: ch.Name, Err: err}
		if err == nil {
			result.Version = prompt.Version
		} else {
			logger.Warn("Regeneration failed for %q: %v", ch.Name, err)
		}
		results = append(results, result)
	}
	return results
}

func (s *PromptService) invalidate(ctx context.Context, channel string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateChannel(ctx, channel); err != nil {
		logger.Warn("Cache invalidation failed for %q: %v", channel, err)
	}
}
