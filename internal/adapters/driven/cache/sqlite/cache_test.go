package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) *AnswerCache {
	t.Helper()
	cache, err := New(Config{DataDir: t.TempDir(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testAnswer(channel string) domain.AnswerResponse {
	return domain.AnswerResponse{
		Answer:        "Jeonse deposits average 300 million won.",
		Channel:       channel,
		Model:         "deepseek-chat",
		PromptVersion: 2,
		QuestionType:  "factual",
		Sources: []domain.Source{
			{VideoID: "vid1", Title: "Jeonse explained", Relevance: 0.91},
		},
	}
}

func TestAnswerCache_PutGet_RoundTrips(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	got, err := cache.Get(ctx, "seoul", "What is jeonse?", 2)
	require.NoError(t, err)
	assert.Equal(t, "Jeonse deposits average 300 million won.", got.Answer)
	assert.True(t, got.FromCache)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "vid1", got.Sources[0].VideoID)
}

func TestAnswerCache_Get_NormalizesQuestion(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	_, err := cache.Get(ctx, "seoul", "  WHAT   is jeonse?  ", 2)
	assert.NoError(t, err)
}

func TestAnswerCache_Get_NearDuplicateQuestion(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul",
		"what is the average jeonse deposit in seoul", 2, testAnswer("seoul")))

	// Same tokens, different order and punctuation.
	got, err := cache.Get(ctx, "seoul", "In Seoul, what is the average jeonse deposit?", 2)
	require.NoError(t, err)
	assert.True(t, got.FromCache)
}

func TestAnswerCache_Get_DistinctQuestionMisses(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	_, err := cache.Get(ctx, "seoul", "How do mortgage rates move?", 2)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestAnswerCache_Get_PromptVersionIsPartOfKey(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	_, err := cache.Get(ctx, "seoul", "What is jeonse?", 3)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestAnswerCache_Get_ChannelsAreIsolated(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	_, err := cache.Get(ctx, "busan", "What is jeonse?", 2)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestAnswerCache_Get_ExpiredEntryMisses(t *testing.T) {
	cache := newTestCache(t, time.Nanosecond)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "What is jeonse?", 2, testAnswer("seoul")))

	_, err := cache.Get(ctx, "seoul", "What is jeonse?", 2)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestAnswerCache_InvalidateChannel(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "q1", 2, testAnswer("seoul")))
	require.NoError(t, cache.Put(ctx, "busan", "q1", 2, testAnswer("busan")))

	require.NoError(t, cache.InvalidateChannel(ctx, "seoul"))

	_, err := cache.Get(ctx, "seoul", "q1", 2)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = cache.Get(ctx, "busan", "q1", 2)
	assert.NoError(t, err)
}

func TestAnswerCache_Cleanup_RemovesOnlyExpired(t *testing.T) {
	cache := newTestCache(t, time.Nanosecond)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "old question", 2, testAnswer("seoul")))

	cache.ttl = time.Hour
	require.NoError(t, cache.Put(ctx, "seoul", "fresh question", 2, testAnswer("seoul")))

	dropped, err := cache.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	_, err = cache.Get(ctx, "seoul", "fresh question", 2)
	assert.NoError(t, err)
}

func TestAnswerCache_Clear(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "q1", 2, testAnswer("seoul")))
	require.NoError(t, cache.Put(ctx, "busan", "q2", 2, testAnswer("busan")))

	require.NoError(t, cache.Clear(ctx))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestAnswerCache_Stats(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "seoul", "q1", 2, testAnswer("seoul")))
	require.NoError(t, cache.Put(ctx, "seoul", "q2", 2, testAnswer("seoul")))
	require.NoError(t, cache.Put(ctx, "busan", "q1", 2, testAnswer("busan")))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 0, stats.Expired)
	assert.Equal(t, 2, stats.PerChannel["seoul"])
	assert.Equal(t, 1, stats.PerChannel["busan"])
	assert.Positive(t, stats.SizeBytes)
}

func TestAnswerCache_Put_ReplacesExistingEntry(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	first := testAnswer("seoul")
	require.NoError(t, cache.Put(ctx, "seoul", "q1", 2, first))

	second := testAnswer("seoul")
	second.Answer = "Updated answer."
	require.NoError(t, cache.Put(ctx, "seoul", "q1", 2, second))

	got, err := cache.Get(ctx, "seoul", "q1", 2)
	require.NoError(t, err)
	assert.Equal(t, "Updated answer.", got.Answer)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestNormalizeQuestion(t *testing.T) {
	assert.Equal(t, "what is jeonse?", NormalizeQuestion("  What   IS jeonse?  "))
	assert.Equal(t, "", NormalizeQuestion("   "))
}

func TestJaccard(t *testing.T) {
	a := questionTokens("what is the average jeonse deposit")
	b := questionTokens("average jeonse deposit what is the")
	c := questionTokens("mortgage rates")

	assert.Equal(t, 1.0, jaccard(a, b))
	assert.Equal(t, 0.0, jaccard(a, c))
	assert.Equal(t, 0.0, jaccard(a, questionTokens("")))
}
