// Package sqlite provides an answer cache stored in a local SQLite database.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Ensure AnswerCache implements the interface.
var _ driven.AnswerCache = (*AnswerCache)(nil)

// DefaultTTL is how long cached answers stay fresh.
const DefaultTTL = 7 * 24 * time.Hour

// nearDuplicateThreshold is the minimum token overlap (Jaccard) for a cached
// question to serve a differently worded query.
const nearDuplicateThreshold = 0.8

const schema = `
CREATE TABLE IF NOT EXISTS answers (
	key_hash       TEXT PRIMARY KEY,
	channel        TEXT NOT NULL,
	prompt_version INTEGER NOT NULL,
	question_norm  TEXT NOT NULL,
	payload        TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	ttl_seconds    INTEGER NOT NULL,
	hit_count      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_answers_channel ON answers(channel, prompt_version);
`

// Config holds configuration for the SQLite answer cache.
type Config struct {
	// DataDir is the directory holding the cache database.
	// Empty means ~/.ydh/cache/.
	DataDir string

	// TTL is the entry lifetime (default: 7 days).
	TTL time.Duration
}

// AnswerCache stores generated answers in SQLite, keyed by channel,
// normalized question and prompt version.
type AnswerCache struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// New opens (creating if needed) the cache database.
func New(cfg Config) (*AnswerCache, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ydh", "cache")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "answers.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &AnswerCache{db: db, path: dbPath, ttl: ttl}, nil
}

// Close closes the database connection.
func (c *AnswerCache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *AnswerCache) Path() string {
	return c.path
}

// NormalizeQuestion lowercases, trims and collapses whitespace so trivial
// rewordings share a cache key.
func NormalizeQuestion(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(question))), " ")
}

func cacheKey(channel, questionNorm string, promptVersion int) string {
	h := sha256.Sum256([]byte(channel + "\x00" + questionNorm + "\x00" + strconv.Itoa(promptVersion)))
	return hex.EncodeToString(h[:])
}

// Get returns a cached answer for the question, trying an exact key first
// and then a near-duplicate question within the same channel and prompt
// version.
func (c *AnswerCache) Get(ctx context.Context, channel, question string, promptVersion int) (domain.AnswerResponse, error) {
	norm := NormalizeQuestion(question)
	now := time.Now().Unix()

	payload, keyHash, err := c.lookupExact(ctx, cacheKey(channel, norm, promptVersion), now)
	if errors.Is(err, domain.ErrCacheMiss) {
		payload, keyHash, err = c.lookupNear(ctx, channel, norm, promptVersion, now)
	}
	if err != nil {
		return domain.AnswerResponse{}, err
	}

	var resp domain.AnswerResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		// A corrupt row behaves like a miss and gets replaced on Put.
		logger.Warn("cache: dropping corrupt entry for %s: %v", channel, err)
		return domain.AnswerResponse{}, domain.ErrCacheMiss
	}

	if _, err := c.db.ExecContext(ctx, `UPDATE answers SET hit_count = hit_count + 1 WHERE key_hash = ?`, keyHash); err != nil {
		logger.Warn("cache: hit count update failed: %v", err)
	}
	resp.FromCache = true
	return resp, nil
}

func (c *AnswerCache) lookupExact(ctx context.Context, keyHash string, now int64) (string, string, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM answers WHERE key_hash = ? AND created_at + ttl_seconds > ?`,
		keyHash, now).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", "", fmt.Errorf("cache lookup: %w", err)
	}
	return payload, keyHash, nil
}

// lookupNear scans live entries for the channel and returns the one whose
// normalized question has the highest token overlap above the threshold.
func (c *AnswerCache) lookupNear(ctx context.Context, channel, questionNorm string, promptVersion int, now int64) (string, string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key_hash, question_norm, payload FROM answers
		 WHERE channel = ? AND prompt_version = ? AND created_at + ttl_seconds > ?`,
		channel, promptVersion, now)
	if err != nil {
		return "", "", fmt.Errorf("cache scan: %w", err)
	}
	defer rows.Close()

	want := questionTokens(questionNorm)
	var bestPayload, bestKey string
	bestScore := 0.0

	for rows.Next() {
		var keyHash, norm, payload string
		if err := rows.Scan(&keyHash, &norm, &payload); err != nil {
			return "", "", fmt.Errorf("cache scan: %w", err)
		}
		score := jaccard(want, questionTokens(norm))
		if score >= nearDuplicateThreshold && score > bestScore {
			bestScore, bestKey, bestPayload = score, keyHash, payload
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", fmt.Errorf("cache scan: %w", err)
	}
	if bestKey == "" {
		return "", "", domain.ErrCacheMiss
	}
	return bestPayload, bestKey, nil
}

// Put stores an answer, replacing any existing entry for the same key.
func (c *AnswerCache) Put(ctx context.Context, channel, question string, promptVersion int, resp domain.AnswerResponse) error {
	norm := NormalizeQuestion(question)
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached answer: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO answers (key_hash, channel, prompt_version, question_norm, payload, created_at, ttl_seconds, hit_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT(key_hash) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			ttl_seconds = excluded.ttl_seconds`,
		cacheKey(channel, norm, promptVersion), channel, promptVersion, norm,
		string(payload), time.Now().Unix(), int64(c.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("store cached answer: %w", err)
	}
	return nil
}

// InvalidateChannel drops every entry for the channel.
func (c *AnswerCache) InvalidateChannel(ctx context.Context, channel string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM answers WHERE channel = ?`, channel); err != nil {
		return fmt.Errorf("invalidate channel %q: %w", channel, err)
	}
	return nil
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *AnswerCache) Cleanup(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM answers WHERE created_at + ttl_seconds <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup cache: %w", err)
	}
	return int(n), nil
}

// Clear drops every entry.
func (c *AnswerCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM answers`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Stats reports cache contents.
func (c *AnswerCache) Stats(ctx context.Context) (driven.CacheStats, error) {
	now := time.Now().Unix()
	stats := driven.CacheStats{PerChannel: make(map[string]int)}

	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(created_at + ttl_seconds <= ?), 0) FROM answers`, now).
		Scan(&stats.Entries, &stats.Expired)
	if err != nil {
		return driven.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT channel, COUNT(*) FROM answers WHERE created_at + ttl_seconds > ? GROUP BY channel`, now)
	if err != nil {
		return driven.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var channel string
		var count int
		if err := rows.Scan(&channel, &count); err != nil {
			return driven.CacheStats{}, fmt.Errorf("cache stats: %w", err)
		}
		stats.PerChannel[channel] = count
	}
	if err := rows.Err(); err != nil {
		return driven.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	if info, err := os.Stat(c.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// questionTokens splits a normalized question into a set of word tokens.
func questionTokens(norm string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[f] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
