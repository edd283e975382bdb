package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driving"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Ensure Answerer implements the interface.
var _ driving.AskService = (*Answerer)(nil)

const (
	// contextChunkLimit bounds how many chunks go into the LLM context.
	contextChunkLimit = 6

	// contextExcerptRunes bounds each chunk excerpt in the LLM context.
	contextExcerptRunes = 400

	// sourceExcerptRunes bounds excerpts shown to the user.
	sourceExcerptRunes = 150

	answerMaxTokens = 1024
)

// Answerer answers questions over one channel's corpus: cache lookup,
// retrieval, grounded generation and source attribution.
type Answerer struct {
	retriever *Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	cache     driven.AnswerCache
}

// NewAnswerer creates a new answer service. cache may be nil (caching
// disabled). llm may be nil, in which case Ask fails with a clear error.
func NewAnswerer(
	retriever *Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cache driven.AnswerCache,
) *Answerer {
	return &Answerer{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		cache:     cache,
	}
}

// Ask answers the question from the channel's corpus.
func (a *Answerer) Ask(ctx context.Context, channel, question string) (domain.AnswerResponse, error) {
	started := time.Now()
	channel = strings.TrimSpace(channel)
	question = strings.TrimSpace(question)
	if channel == "" || question == "" {
		return domain.AnswerResponse{}, fmt.Errorf("ask: %w: channel and question are required", domain.ErrInvalidInput)
	}
	if a.llm == nil {
		return domain.AnswerResponse{}, fmt.Errorf("ask: %w", domain.ErrLLMUnavailable)
	}

	prompt := a.activePrompt(ctx, channel)
	logger.Debug("Using prompt version %d for %q", prompt.Version, channel)

	if a.cache != nil {
		cached, err := a.cache.Get(ctx, channel, question, prompt.Version)
		if err == nil {
			logger.Info("Cache hit for %q", channel)
			cached.FromCache = true
			cached.Latency = time.Since(started)
			return cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("Cache lookup failed: %v", err)
		}
	}

	candidates, qt, err := a.retriever.Retrieve(ctx, channel, question, prompt.Persona)
	if err != nil {
		// A channel with no indexed corpus answers like an exhausted
		// search, not a failure.
		if !errors.Is(err, domain.ErrMissingCorpus) {
			return domain.AnswerResponse{}, fmt.Errorf("ask %q: %w", channel, err)
		}
		logger.Warn("No indexed corpus for %q", channel)
		candidates = nil
	}

	resp := domain.AnswerResponse{
		Channel:       channel,
		Model:         a.llm.ModelName(),
		PromptVersion: prompt.Version,
		QuestionType:  qt,
	}

	if len(candidates) == 0 {
		logger.Info("No relevant chunks for question in %q", channel)
		resp.Answer = fmt.Sprintf(
			"The %s channel's videos do not cover this question. Try rephrasing, or ask about a topic the channel discusses.",
			channel)
		resp.Latency = time.Since(started)
		return resp, nil
	}

	answer, err := a.generate(ctx, channel, question, prompt, candidates, qt)
	if err != nil {
		logger.Warn("Generation failed for %q: %v", channel, err)
		resp.Answer = fmt.Sprintf(
			"Sorry, an answer could not be generated for the %s channel right now. Please try again.",
			channel)
		resp.Latency = time.Since(started)
		return resp, nil
	}

	resp.Answer = answer
	resp.Sources = buildSources(answer, candidates)
	resp.Latency = time.Since(started)

	if a.cache != nil {
		if err := a.cache.Put(ctx, channel, question, prompt.Version, resp); err != nil {
			logger.Warn("Cache store failed: %v", err)
		}
	}
	return resp, nil
}

// activePrompt loads the channel's active prompt, falling back to the
// built-in default when none is stored or the store fails.
func (a *Answerer) activePrompt(ctx context.Context, channel string) domain.PromptVersion {
	if a.prompts == nil {
		return domain.DefaultPrompt(channel)
	}
	prompt, err := a.prompts.GetActive(ctx, channel)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Prompt load failed for %q, using default: %v", channel, err)
		}
		return domain.DefaultPrompt(channel)
	}
	return prompt
}

// generate runs the grounded chat completion.
func (a *Answerer) generate(
	ctx context.Context,
	channel, question string,
	prompt domain.PromptVersion,
	candidates []domain.RetrievalCandidate,
	qt domain.QuestionType,
) (string, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: systemMessage(channel, prompt)},
		{Role: "user", Content: userMessage(question, candidates)},
	}
	answer, err := a.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: temperatureFor(qt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}
	return answer, nil
}

// systemMessage renders the prompt version into the system message:
// substituted template, rules, output structure and citation instruction.
func systemMessage(channel string, prompt domain.PromptVersion) string {
	var b strings.Builder
	b.WriteString(prompt.SystemPrompt(channel))
	b.WriteString("\n\nRules:\n")
	for _, rule := range prompt.Rules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	fmt.Fprintf(&b, "\nAnswer structure: %s.\n", prompt.Output.Structure)
	fmt.Fprintf(&b, "Use at most %d bullet points per list.", prompt.Output.MaxBullets)
	if prompt.Output.IncludeSourceLinks {
		b.WriteString("\nWhen you use an excerpt, cite it by its video id in square brackets, e.g. [abc123].")
	}
	return b.String()
}

// userMessage builds the excerpt context block followed by the question.
func userMessage(question string, candidates []domain.RetrievalCandidate) string {
	var b strings.Builder
	b.WriteString("Transcript excerpts:\n\n")
	for i, c := range candidates {
		if i >= contextChunkLimit {
			break
		}
		fmt.Fprintf(&b, "[%d] video=%s title=%q", i+1, c.Chunk.VideoID, c.Chunk.Title)
		if !c.Chunk.UploadDate.IsZero() {
			fmt.Fprintf(&b, " uploaded=%s", c.Chunk.UploadDate.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, " chunk=%d similarity=%.2f\n%s\n\n",
			c.Chunk.ChunkIndex, c.Similarity, excerpt(c.Chunk.Text, contextExcerptRunes))
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

// buildSources attributes the answer to candidates. Candidates whose video
// id the answer cites are preferred; when the answer cites nothing, the
// top candidates are reported instead.
func buildSources(answer string, candidates []domain.RetrievalCandidate) []domain.Source {
	var cited []domain.RetrievalCandidate
	seen := make(map[string]bool)
	for _, c := range candidates {
		if strings.Contains(answer, c.Chunk.VideoID) && !seen[c.Chunk.VideoID] {
			cited = append(cited, c)
			seen[c.Chunk.VideoID] = true
		}
	}
	if len(cited) == 0 {
		for _, c := range candidates {
			if seen[c.Chunk.VideoID] {
				continue
			}
			cited = append(cited, c)
			seen[c.Chunk.VideoID] = true
			if len(cited) >= 5 {
				break
			}
		}
	}

	sources := make([]domain.Source, 0, len(cited))
	for _, c := range cited {
		sources = append(sources, domain.Source{
			VideoID:   c.Chunk.VideoID,
			Title:     c.Chunk.Title,
			Timestamp: c.Chunk.Timestamp,
			Relevance: c.Relevance(),
			Excerpt:   excerpt(c.Chunk.Text, sourceExcerptRunes),
		})
	}
	return sources
}
