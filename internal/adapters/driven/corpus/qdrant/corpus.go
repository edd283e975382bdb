// Package qdrant provides a corpus store adapter backed by the Qdrant REST
// API. Each channel gets its own collection, so similarity search can never
// cross channel boundaries.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second

	// collectionPrefix namespaces this application's collections inside a
	// shared Qdrant instance.
	collectionPrefix = "channel_"

	// scrollPageSize is the page size for GetAll.
	scrollPageSize = 256
)

// Config holds configuration for the Qdrant corpus store.
type Config struct {
	// BaseURL is the Qdrant REST URL (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates against Qdrant Cloud. Empty for local instances.
	APIKey string

	// Dimensions is the embedding vector size, used when creating
	// collections (required for writes).
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// CorpusStore is a REST client to Qdrant with one collection per channel.
type CorpusStore struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	dimensions int
}

// New creates a new Qdrant corpus store.
func New(cfg Config) *CorpusStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CorpusStore{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		dimensions: cfg.Dimensions,
	}
}

// CollectionName maps a channel to its Qdrant collection name. Characters
// outside [a-z0-9_] are folded to underscores so any channel name yields a
// valid collection.
func CollectionName(channel string) string {
	var b strings.Builder
	b.WriteString(collectionPrefix)
	for _, r := range strings.ToLower(strings.TrimSpace(channel)) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// pointID derives a stable UUID for a chunk, so re-ingesting the same chunk
// overwrites instead of duplicating.
func pointID(channel string, ref domain.ChunkRef) string {
	key := fmt.Sprintf("%s/%s/%d", channel, ref.VideoID, ref.ChunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// UpsertChunks writes chunks into the channel's collection, creating the
// collection if needed.
func (s *CorpusStore) UpsertChunks(ctx context.Context, channel string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.dimensions <= 0 {
		return fmt.Errorf("qdrant: %w: vector dimensions not configured", domain.ErrInvalidInput)
	}
	collection := CollectionName(channel)
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     pointID(channel, c.Ref()),
			"vector": c.Embedding,
			"payload": map[string]any{
				"channel":     channel,
				"video_id":    c.VideoID,
				"title":       c.Title,
				"text":        c.Text,
				"timestamp":   c.Timestamp,
				"chunk_index": c.ChunkIndex,
				"upload_date": c.UploadDate.Format(time.RFC3339),
				"metadata":    c.Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
}

// ensureCollection creates the collection if it does not exist. Qdrant
// returns 200 for an existing collection with the same schema.
func (s *CorpusStore) ensureCollection(ctx context.Context, collection string) error {
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+collection, body, nil)
}

func (s *CorpusStore) collectionExists(ctx context.Context, collection string) (bool, error) {
	err := s.do(ctx, http.MethodGet, "/collections/"+collection, nil, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// searchResponse is the /points/search response format.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Query finds the k most similar chunks within the channel's collection.
func (s *CorpusStore) Query(ctx context.Context, channel string, embedding []float32, k int) ([]domain.RetrievalCandidate, error) {
	if k <= 0 {
		return nil, nil
	}
	collection := CollectionName(channel)
	body := map[string]any{
		"vector":       embedding,
		"limit":        k,
		"with_payload": true,
	}

	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &resp); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("query %q: %w", channel, domain.ErrMissingCorpus)
		}
		return nil, fmt.Errorf("query %q: %w", channel, err)
	}

	candidates := make([]domain.RetrievalCandidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		candidates = append(candidates, domain.RetrievalCandidate{
			Chunk:      chunkFromPayload(channel, r.Payload),
			Similarity: r.Score,
		})
	}
	return candidates, nil
}

// collectionsResponse is the /collections response format.
type collectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// ListChannels lists every channel collection with its chunk count.
// Channel names are recovered from point payloads where possible, falling
// back to the sanitized collection suffix for empty collections.
func (s *CorpusStore) ListChannels(ctx context.Context) ([]domain.ChannelInfo, error) {
	var resp collectionsResponse
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var infos []domain.ChannelInfo
	for _, c := range resp.Result.Collections {
		if !strings.HasPrefix(c.Name, collectionPrefix) {
			continue
		}
		name := strings.TrimPrefix(c.Name, collectionPrefix)
		count, err := s.countCollection(ctx, c.Name)
		if err != nil {
			return nil, fmt.Errorf("count %q: %w", c.Name, err)
		}
		if stored, err := s.storedChannelName(ctx, c.Name); err == nil && stored != "" {
			name = stored
		}
		infos = append(infos, domain.ChannelInfo{Name: name, Chunks: count})
	}
	return infos, nil
}

// storedChannelName reads the channel payload field off any one point.
func (s *CorpusStore) storedChannelName(ctx context.Context, collection string) (string, error) {
	body := map[string]any{
		"limit":        1,
		"with_payload": []string{"channel"},
	}
	var resp scrollResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Result.Points) == 0 {
		return "", nil
	}
	name, _ := resp.Result.Points[0].Payload["channel"].(string)
	return name, nil
}

// countResponse is the /points/count response format.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// Count returns the number of chunks in the channel's collection.
func (s *CorpusStore) Count(ctx context.Context, channel string) (int, error) {
	collection := CollectionName(channel)
	count, err := s.countCollection(ctx, collection)
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("count %q: %w", channel, domain.ErrMissingCorpus)
		}
		return 0, fmt.Errorf("count %q: %w", channel, err)
	}
	return count, nil
}

func (s *CorpusStore) countCollection(ctx context.Context, collection string) (int, error) {
	var resp countResponse
	err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/count",
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// scrollResponse is the /points/scroll response format.
type scrollResponse struct {
	Result struct {
		Points []struct {
			Payload map[string]any `json:"payload"`
		} `json:"points"`
		NextPageOffset any `json:"next_page_offset"`
	} `json:"result"`
}

// GetAll pages through the channel's collection and returns every chunk,
// without embeddings.
func (s *CorpusStore) GetAll(ctx context.Context, channel string) ([]domain.Chunk, error) {
	collection := CollectionName(channel)
	var chunks []domain.Chunk
	var offset any

	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp scrollResponse
		if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &resp); err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("get all %q: %w", channel, domain.ErrMissingCorpus)
			}
			return nil, fmt.Errorf("get all %q: %w", channel, err)
		}
		for _, p := range resp.Result.Points {
			chunks = append(chunks, chunkFromPayload(channel, p.Payload))
		}
		if resp.Result.NextPageOffset == nil {
			return chunks, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// DeleteChannel removes the channel's collection entirely.
func (s *CorpusStore) DeleteChannel(ctx context.Context, channel string) error {
	collection := CollectionName(channel)
	if err := s.do(ctx, http.MethodDelete, "/collections/"+collection, nil, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %q: %w", channel, err)
	}
	return nil
}

// Close releases resources.
func (s *CorpusStore) Close() error {
	return nil
}

// chunkFromPayload rebuilds a chunk from a Qdrant point payload.
func chunkFromPayload(channel string, payload map[string]any) domain.Chunk {
	c := domain.Chunk{Channel: channel}
	if v, ok := payload["video_id"].(string); ok {
		c.VideoID = v
	}
	if v, ok := payload["title"].(string); ok {
		c.Title = v
	}
	if v, ok := payload["text"].(string); ok {
		c.Text = v
	}
	if v, ok := payload["timestamp"].(string); ok {
		c.Timestamp = v
	}
	if v, ok := payload["chunk_index"].(float64); ok {
		c.ChunkIndex = int(v)
	}
	if v, ok := payload["upload_date"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.UploadDate = t
		}
	}
	if v, ok := payload["metadata"].(map[string]any); ok {
		c.Metadata = v
	}
	c.ID = pointID(channel, c.Ref())
	return c
}

// statusError carries the HTTP status for not-found detection.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant error (status %d): %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

// do sends an authenticated JSON request and decodes the response.
func (s *CorpusStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: string(respBody)}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
