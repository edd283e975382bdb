package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

func answererFixture(llm *mockLLMService, cache *mockAnswerCache) (*Answerer, *mockCorpusStore, *mockPromptStore) {
	store := newMockCorpusStore()
	store.hits = []domain.RetrievalCandidate{
		makeHit("v1", 0, 0.9),
		makeHit("v2", 0, 0.8),
		makeHit("v3", 0, 0.7),
	}
	embed := &mockEmbeddingService{embedding: []float32{0.1, 0.2}}
	prompts := newMockPromptStore()
	retriever := NewRetriever(store, embed, llm, expansionDisabled())
	a := NewAnswerer(retriever, llm, prompts, nil)
	if cache != nil {
		a = NewAnswerer(retriever, llm, prompts, cache)
	}
	return a, store, prompts
}

// TestAnswerer_Ask_Success tests the full answer path with cited sources
func TestAnswerer_Ask_Success(t *testing.T) {
	llm := &mockLLMService{chatReply: "Yields in Meguro are around 6.2% [v1]."}
	a, _, _ := answererFixture(llm, nil)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	assert.Equal(t, "Yields in Meguro are around 6.2% [v1].", resp.Answer)
	assert.Equal(t, "tokyo_re", resp.Channel)
	assert.Equal(t, "mock-llm", resp.Model)
	assert.Equal(t, domain.QuestionFactual, resp.QuestionType)
	assert.False(t, resp.FromCache)
	assert.Greater(t, resp.Latency.Nanoseconds(), int64(0))

	// Only the cited video becomes a source.
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "v1", resp.Sources[0].VideoID)
	assert.Equal(t, 0.9, resp.Sources[0].Relevance)
	assert.NotEmpty(t, resp.Sources[0].Excerpt)

	// Factual questions generate at the low temperature.
	require.Len(t, llm.chatCalls, 1)
	assert.Equal(t, 0.4, llm.chatCalls[0].Temperature)
}

// TestAnswerer_Ask_UncitedAnswerFallsBackToTopSources tests source fallback
func TestAnswerer_Ask_UncitedAnswerFallsBackToTopSources(t *testing.T) {
	llm := &mockLLMService{chatReply: "Yields are around six percent."}
	a, _, _ := answererFixture(llm, nil)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	require.Len(t, resp.Sources, 3)
	assert.Equal(t, "v1", resp.Sources[0].VideoID)
	assert.Equal(t, "v3", resp.Sources[2].VideoID)
}

// TestAnswerer_Ask_GenerationFailure tests the apology path
func TestAnswerer_Ask_GenerationFailure(t *testing.T) {
	llm := &mockLLMService{chatErr: errors.New("upstream 500")}
	a, _, _ := answererFixture(llm, nil)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "tokyo_re")
	assert.Contains(t, resp.Answer, "could not be generated")
	assert.Empty(t, resp.Sources)
}

// TestAnswerer_Ask_NoRelevantChunks tests the insufficiency answer
func TestAnswerer_Ask_NoRelevantChunks(t *testing.T) {
	llm := &mockLLMService{chatReply: "unused"}
	store := newMockCorpusStore()
	store.hits = []domain.RetrievalCandidate{makeHit("v1", 0, 0.05)} // below threshold
	embed := &mockEmbeddingService{embedding: []float32{0.1}}
	retriever := NewRetriever(store, embed, llm, expansionDisabled())
	a := NewAnswerer(retriever, llm, newMockPromptStore(), nil)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Something unrelated?")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "do not cover")
	assert.Empty(t, resp.Sources)
	assert.Empty(t, llm.chatCalls)
}

// TestAnswerer_Ask_CacheHit tests that cached answers skip the LLM
func TestAnswerer_Ask_CacheHit(t *testing.T) {
	llm := &mockLLMService{chatReply: "fresh answer"}
	cache := newMockAnswerCache()
	a, _, _ := answererFixture(llm, cache)

	first, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, cache.puts)

	second, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Len(t, llm.chatCalls, 1) // no second generation
}

// TestAnswerer_Ask_UsesActivePrompt tests prompt version propagation
func TestAnswerer_Ask_UsesActivePrompt(t *testing.T) {
	llm := &mockLLMService{chatReply: "an answer"}
	a, _, prompts := answererFixture(llm, nil)
	_, err := prompts.Save(context.Background(), domain.PromptVersion{
		Channel:              "tokyo_re",
		Persona:              "real-estate investment expert",
		SystemPromptTemplate: "You advise on the {{channel}} channel.",
		Rules:                domain.BaseRules,
		Output:               domain.DefaultOutputFormat,
	})
	require.NoError(t, err)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.PromptVersion)
}

// TestAnswerer_Ask_DefaultPromptWhenNoneStored tests the version-0 fallback
func TestAnswerer_Ask_DefaultPromptWhenNoneStored(t *testing.T) {
	llm := &mockLLMService{chatReply: "an answer"}
	a, _, _ := answererFixture(llm, nil)

	resp, err := a.Ask(context.Background(), "tokyo_re", "Rent in Meguro?")
	require.NoError(t, err)

	assert.Equal(t, 0, resp.PromptVersion)
}

// TestAnswerer_Ask_InvalidInput tests input validation
func TestAnswerer_Ask_InvalidInput(t *testing.T) {
	llm := &mockLLMService{}
	a, _, _ := answererFixture(llm, nil)

	_, err := a.Ask(context.Background(), "", "question")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = a.Ask(context.Background(), "channel", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestAnswerer_Ask_NoLLM tests degradation without an LLM
func TestAnswerer_Ask_NoLLM(t *testing.T) {
	store := newMockCorpusStore()
	embed := &mockEmbeddingService{embedding: []float32{0.1}}
	retriever := NewRetriever(store, embed, nil, expansionDisabled())
	a := NewAnswerer(retriever, nil, newMockPromptStore(), nil)

	_, err := a.Ask(context.Background(), "ch", "question")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

// TestSystemMessage tests prompt rendering into the system message
func TestSystemMessage(t *testing.T) {
	prompt := domain.DefaultPrompt("my_channel")

	msg := systemMessage("my_channel", prompt)

	assert.Contains(t, msg, "my_channel")
	assert.NotContains(t, msg, domain.ChannelPlaceholder)
	for _, rule := range domain.BaseRules {
		assert.Contains(t, msg, rule)
	}
	assert.Contains(t, msg, prompt.Output.Structure)
	assert.Contains(t, msg, "video id in square brackets")
}

// TestUserMessage tests the excerpt context block
func TestUserMessage(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		makeHit("v1", 0, 0.9), makeHit("v2", 1, 0.8), makeHit("v3", 2, 0.7),
		makeHit("v4", 3, 0.6), makeHit("v5", 4, 0.5), makeHit("v6", 5, 0.4),
		makeHit("v7", 6, 0.3),
	}

	msg := userMessage("the question", candidates)

	assert.Contains(t, msg, "video=v1")
	assert.Contains(t, msg, "video=v6")
	assert.NotContains(t, msg, "video=v7") // context capped at six chunks
	assert.Contains(t, msg, "Question: the question")
}

// TestAnswerer_Ask_MissingCorpusAnswersGracefully tests asking an unindexed channel
func TestAnswerer_Ask_MissingCorpusAnswersGracefully(t *testing.T) {
	llm := &mockLLMService{chatReply: "unused"}
	store := newMockCorpusStore()
	embed := &mockEmbeddingService{embedding: []float32{0.1, 0.2}}
	retriever := NewRetriever(store, embed, llm, expansionDisabled())
	a := NewAnswerer(retriever, llm, newMockPromptStore(), nil)

	resp, err := a.Ask(context.Background(), "unindexed_ch", "Rent in Meguro?")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "unindexed_ch")
	assert.Empty(t, resp.Sources)
	// No generation call is made without retrieved context.
	assert.Empty(t, llm.chatCalls)
}

// TestSystemMessage_CitationGatedOnSourceLinks tests the output-format flag
func TestSystemMessage_CitationGatedOnSourceLinks(t *testing.T) {
	prompt := domain.DefaultPrompt("ch")
	prompt.Output = domain.DeepAnalyticalOutputFormat

	withLinks := systemMessage("ch", prompt)
	assert.Contains(t, withLinks, "cite it by its video id")

	prompt.Output.IncludeSourceLinks = false
	withoutLinks := systemMessage("ch", prompt)
	assert.NotContains(t, withoutLinks, "cite it by its video id")
}
