package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *PromptStore {
	t.Helper()
	store, err := NewPromptStore(Config{Root: t.TempDir()})
	require.NoError(t, err)
	return store
}

func testPrompt(channel string) domain.PromptVersion {
	return domain.PromptVersion{
		Channel:   channel,
		CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Persona:   "real-estate investment expert",
		Tone:      "analytical and data-driven",
	}
}

func TestPromptStore_Save_AssignsSequentialVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := store.Save(ctx, testPrompt("seoul"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	versions, err := store.ListVersions(ctx, "seoul")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 3, versions[2].Version)
}

func TestPromptStore_Save_MarksNewVersionActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	_, err = store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	active, err := store.ActiveVersion(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

func TestPromptStore_Save_IsolatesChannels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v1, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	v2, err := store.Save(ctx, testPrompt("busan"))
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 1, v2)
}

func TestPromptStore_GetActive_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	prompt := testPrompt("seoul")
	prompt.ExpertiseKeywords = []string{"apartment", "yield"}
	_, err := store.Save(ctx, prompt)
	require.NoError(t, err)

	got, err := store.GetActive(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, "seoul", got.Channel)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "real-estate investment expert", got.Persona)
	assert.Equal(t, []string{"apartment", "yield"}, got.ExpertiseKeywords)
}

func TestPromptStore_GetActive_UnknownChannel(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetActive(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_GetActive_RepairsStalePointer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	_, err = store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	// Point at a version that does not exist on disk.
	pointer := filepath.Join(store.channelDir("seoul"), activeFileName)
	require.NoError(t, os.WriteFile(pointer, []byte("99"), 0600))
	store.cache = map[string]domain.PromptVersion{}

	got, err := store.GetActive(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	active, err := store.ActiveVersion(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

func TestPromptStore_Get_MissingVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	_, err = store.Get(ctx, "seoul", 7)

	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestPromptStore_SetActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	_, err = store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	require.NoError(t, store.SetActive(ctx, "seoul", 1))

	got, err := store.GetActive(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestPromptStore_SetActive_MissingVersion(t *testing.T) {
	store := newTestStore(t)

	err := store.SetActive(context.Background(), "seoul", 3)

	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestPromptStore_ListVersions_SkipsCorruptFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	_, err = store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	corrupt := filepath.Join(store.channelDir("seoul"), versionFileName(1))
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0600))

	versions, err := store.ListVersions(ctx, "seoul")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 2, versions[0].Version)
}

func TestPromptStore_Save_ValidatesAndRepairs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, domain.PromptVersion{Channel: "seoul"})
	require.NoError(t, err)

	got, err := store.GetActive(ctx, "seoul")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Persona)
	assert.NotEmpty(t, got.Rules)
	assert.NotEmpty(t, got.Output.Structure)
}

func TestPromptStore_ChannelDir_Sanitizes(t *testing.T) {
	store, err := NewPromptStore(Config{Root: "/tmp/prompts"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/tmp/prompts", "my_channel"), store.channelDir("My Channel"))
	assert.Equal(t, filepath.Join("/tmp/prompts", "a_b"), store.channelDir("a/b"))
	assert.Equal(t, filepath.Join("/tmp/prompts", "부동산"), store.channelDir("부동산"))
}

func TestPromptStore_ImmutableVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testPrompt("seoul")
	first.Persona = "original persona"
	_, err := store.Save(ctx, first)
	require.NoError(t, err)

	second := testPrompt("seoul")
	second.Persona = "replacement persona"
	_, err = store.Save(ctx, second)
	require.NoError(t, err)

	got, err := store.Get(ctx, "seoul", 1)
	require.NoError(t, err)
	assert.Equal(t, "original persona", got.Persona)
}

func TestPromptStore_Delete_RemovesVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)
	_, err = store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "seoul", 1))

	_, err = store.Get(ctx, "seoul", 1)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)

	versions, err := store.ListVersions(ctx, "seoul")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 2, versions[0].Version)
}

func TestPromptStore_Delete_RepointsActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, testPrompt("seoul"))
		require.NoError(t, err)
	}

	require.NoError(t, store.Delete(ctx, "seoul", 3))

	active, err := store.ActiveVersion(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

func TestPromptStore_Delete_KeepsActiveWhenOtherVersionRemoved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, testPrompt("seoul"))
		require.NoError(t, err)
	}
	require.NoError(t, store.SetActive(ctx, "seoul", 2))

	require.NoError(t, store.Delete(ctx, "seoul", 1))

	active, err := store.ActiveVersion(ctx, "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

func TestPromptStore_Delete_LastVersionRemovesPointer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "seoul", 1))

	_, err = store.GetActive(ctx, "seoul")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, statErr := os.Stat(filepath.Join(store.channelDir("seoul"), activeFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPromptStore_Delete_MissingVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testPrompt("seoul"))
	require.NoError(t, err)

	err = store.Delete(ctx, "seoul", 7)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}
