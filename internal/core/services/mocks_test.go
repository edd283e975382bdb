package services

import (
	"context"
	"strings"
	"sync"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockCorpusStore implements driven.CorpusStore for testing.
type mockCorpusStore struct {
	mu       sync.Mutex
	chunks   map[string][]domain.Chunk
	hits     []domain.RetrievalCandidate
	hitsSeq  [][]domain.RetrievalCandidate
	queryErr error
	getErr   error
	listErr  error
	queries  int
}

func newMockCorpusStore() *mockCorpusStore {
	return &mockCorpusStore{chunks: make(map[string][]domain.Chunk)}
}

func (m *mockCorpusStore) UpsertChunks(_ context.Context, channel string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[channel] = append(m.chunks[channel], chunks...)
	return nil
}

func (m *mockCorpusStore) Query(_ context.Context, channel string, _ []float32, k int) ([]domain.RetrievalCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if _, ok := m.chunks[channel]; !ok && len(m.hits) == 0 && len(m.hitsSeq) == 0 {
		return nil, domain.ErrMissingCorpus
	}
	// hitsSeq serves one result set per query, for tests where different
	// search stages must see different scores.
	if len(m.hitsSeq) > 0 {
		hits := m.hitsSeq[0]
		m.hitsSeq = m.hitsSeq[1:]
		if k > len(hits) {
			return hits, nil
		}
		return hits[:k], nil
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockCorpusStore) ListChannels(_ context.Context) ([]domain.ChannelInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var infos []domain.ChannelInfo
	for name, chunks := range m.chunks {
		infos = append(infos, domain.ChannelInfo{Name: name, Chunks: len(chunks)})
	}
	return infos, nil
}

func (m *mockCorpusStore) Count(_ context.Context, channel string) (int, error) {
	return len(m.chunks[channel]), nil
}

func (m *mockCorpusStore) GetAll(_ context.Context, channel string) ([]domain.Chunk, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	chunks, ok := m.chunks[channel]
	if !ok {
		return nil, domain.ErrMissingCorpus
	}
	return chunks, nil
}

func (m *mockCorpusStore) DeleteChannel(_ context.Context, channel string) error {
	delete(m.chunks, channel)
	return nil
}

func (m *mockCorpusStore) Close() error { return nil }

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing. Responses are
// selected by prompt substring; prompts and options are recorded.
type mockLLMService struct {
	mu          sync.Mutex
	responses   map[string]string // prompt substring -> response
	chatReply   string
	generateErr error
	chatErr     error
	prompts     []string
	chatCalls   []driven.ChatOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	for substr, resp := range m.responses {
		if strings.Contains(prompt, substr) {
			return resp, nil
		}
	}
	return "", nil
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls = append(m.chatCalls, opts)
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.chatReply, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	mu       sync.Mutex
	versions map[string][]domain.PromptVersion
	active   map[string]int
	saveErr  error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{
		versions: make(map[string][]domain.PromptVersion),
		active:   make(map[string]int),
	}
}

func (m *mockPromptStore) GetActive(_ context.Context, channel string) (domain.PromptVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.active[channel]
	if !ok {
		return domain.PromptVersion{}, domain.ErrNotFound
	}
	for _, v := range m.versions[channel] {
		if v.Version == active {
			return v, nil
		}
	}
	return domain.PromptVersion{}, domain.ErrNotFound
}

func (m *mockPromptStore) Get(_ context.Context, channel string, version int) (domain.PromptVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[channel] {
		if v.Version == version {
			return v, nil
		}
	}
	return domain.PromptVersion{}, domain.ErrVersionNotFound
}

func (m *mockPromptStore) Save(_ context.Context, prompt domain.PromptVersion) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	next := len(m.versions[prompt.Channel]) + 1
	prompt.Version = next
	m.versions[prompt.Channel] = append(m.versions[prompt.Channel], prompt)
	m.active[prompt.Channel] = next
	return next, nil
}

func (m *mockPromptStore) ListVersions(_ context.Context, channel string) ([]domain.PromptVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PromptVersion(nil), m.versions[channel]...), nil
}

func (m *mockPromptStore) SetActive(_ context.Context, channel string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version < 1 || version > len(m.versions[channel]) {
		return domain.ErrVersionNotFound
	}
	m.active[channel] = version
	return nil
}

func (m *mockPromptStore) ActiveVersion(_ context.Context, channel string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.active[channel]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return active, nil
}

func (m *mockPromptStore) Delete(_ context.Context, channel string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.versions[channel][:0]
	found := false
	for _, v := range m.versions[channel] {
		if v.Version == version {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return domain.ErrVersionNotFound
	}
	m.versions[channel] = kept
	if m.active[channel] == version {
		delete(m.active, channel)
		for _, v := range kept {
			if v.Version > m.active[channel] {
				m.active[channel] = v.Version
			}
		}
	}
	return nil
}

func (m *mockPromptStore) Close() error { return nil }

// mockAnswerCache implements driven.AnswerCache for testing.
type mockAnswerCache struct {
	mu           sync.Mutex
	entries      map[string]domain.AnswerResponse
	invalidated  []string
	puts         int
	getCallCount int
}

func newMockAnswerCache() *mockAnswerCache {
	return &mockAnswerCache{entries: make(map[string]domain.AnswerResponse)}
}

func cacheKey(channel, question string, version int) string {
	return channel + "|" + question + "|" + string(rune('0'+version))
}

func (m *mockAnswerCache) Get(_ context.Context, channel, question string, version int) (domain.AnswerResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCallCount++
	resp, ok := m.entries[cacheKey(channel, question, version)]
	if !ok {
		return domain.AnswerResponse{}, domain.ErrCacheMiss
	}
	return resp, nil
}

func (m *mockAnswerCache) Put(_ context.Context, channel, question string, version int, resp domain.AnswerResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.entries[cacheKey(channel, question, version)] = resp
	return nil
}

func (m *mockAnswerCache) InvalidateChannel(_ context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, channel)
	for key := range m.entries {
		if strings.HasPrefix(key, channel+"|") {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *mockAnswerCache) Cleanup(_ context.Context) (int, error) { return 0, nil }

func (m *mockAnswerCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]domain.AnswerResponse)
	return nil
}

func (m *mockAnswerCache) Stats(_ context.Context) (driven.CacheStats, error) {
	return driven.CacheStats{Entries: len(m.entries)}, nil
}

func (m *mockAnswerCache) Close() error { return nil }
