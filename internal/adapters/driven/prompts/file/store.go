// Package file provides a prompt store that keeps versioned channel prompts
// as JSON files on disk. Saved versions are immutable; an `active` pointer
// file in each channel directory marks the version in use.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/fsnotify/fsnotify"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

const (
	versionFilePrefix = "prompt_v"
	versionFileSuffix = ".json"
	activeFileName    = "active"
)

// Config holds configuration for the file-based prompt store.
type Config struct {
	// Root is the directory holding one subdirectory per channel.
	// Empty means ~/.ydh/prompts/.
	Root string

	// Watch enables an fsnotify watcher that drops cached prompts when
	// files change on disk, so manual edits take effect without restart.
	Watch bool
}

// PromptStore persists prompt versions under <root>/<channel>/prompt_vN.json.
//
// The constructor does not perform any I/O. Directories are created lazily
// on the first Save.
type PromptStore struct {
	mu      sync.RWMutex
	root    string
	cache   map[string]domain.PromptVersion
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewPromptStore creates a new versioned prompt store.
func NewPromptStore(cfg Config) (*PromptStore, error) {
	root := cfg.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		root = filepath.Join(home, ".ydh", "prompts")
	}

	s := &PromptStore{
		root:  root,
		cache: make(map[string]domain.PromptVersion),
	}

	if cfg.Watch {
		if err := s.startWatcher(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the store's root directory.
func (s *PromptStore) Root() string {
	return s.root
}

// channelDir maps a channel name to its directory. Path separators and
// other unsafe characters are folded to underscores.
func (s *PromptStore) channelDir(channel string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(channel)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return filepath.Join(s.root, b.String())
}

func versionFileName(version int) string {
	return versionFilePrefix + strconv.Itoa(version) + versionFileSuffix
}

// GetActive returns the channel's active prompt version.
func (s *PromptStore) GetActive(ctx context.Context, channel string) (domain.PromptVersion, error) {
	s.mu.RLock()
	if p, ok := s.cache[channel]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.activeVersionLocked(channel)
	if err != nil {
		return domain.PromptVersion{}, err
	}
	p, err := s.readVersion(channel, version)
	if err != nil {
		return domain.PromptVersion{}, err
	}
	s.cache[channel] = p
	return p, nil
}

// Get returns a specific stored version.
func (s *PromptStore) Get(ctx context.Context, channel string, version int) (domain.PromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readVersion(channel, version)
}

// Save assigns the next version number, writes the prompt and marks it
// active. Writes go through a temp file and rename so a crash never leaves
// a half-written version on disk.
func (s *PromptStore) Save(ctx context.Context, prompt domain.PromptVersion) (int, error) {
	if err := prompt.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.channelDir(prompt.Channel)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return 0, fmt.Errorf("create channel directory: %w", err)
	}

	versions, err := s.versionNumbers(prompt.Channel)
	if err != nil {
		return 0, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}
	prompt.Version = next

	data, err := json.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal prompt: %w", err)
	}
	path := filepath.Join(dir, versionFileName(next))
	if err := writeFileAtomic(path, data); err != nil {
		return 0, fmt.Errorf("write prompt v%d: %w", next, err)
	}
	if err := s.writeActiveLocked(prompt.Channel, next); err != nil {
		return 0, err
	}

	s.cache[prompt.Channel] = prompt
	logger.Debug("prompts: saved %s v%d (auto=%t)", prompt.Channel, next, prompt.AutoGenerated)
	return next, nil
}

// ListVersions returns all stored versions, oldest first. Files that fail
// to parse are skipped with a warning, so one corrupt version does not hide
// the rest of the history.
func (s *PromptStore) ListVersions(ctx context.Context, channel string) ([]domain.PromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.versionNumbers(channel)
	if err != nil {
		return nil, err
	}

	prompts := make([]domain.PromptVersion, 0, len(versions))
	for _, v := range versions {
		p, err := s.readVersion(channel, v)
		if err != nil {
			logger.Warn("prompts: skipping %s v%d: %v", channel, v, err)
			continue
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// SetActive marks an existing version as active.
func (s *PromptStore) SetActive(ctx context.Context, channel string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.readVersion(channel, version)
	if err != nil {
		return err
	}
	if err := s.writeActiveLocked(channel, version); err != nil {
		return err
	}
	s.cache[channel] = p
	return nil
}

// ActiveVersion returns the active version number.
func (s *PromptStore) ActiveVersion(ctx context.Context, channel string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeVersionLocked(channel)
}

// Delete removes a stored version. When the deleted version was the active
// one, the pointer moves to the highest remaining version. Deleting the last
// version removes the pointer as well.
func (s *PromptStore) Delete(ctx context.Context, channel string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.channelDir(channel)
	path := filepath.Join(dir, versionFileName(version))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s v%d: %w", channel, version, domain.ErrVersionNotFound)
		}
		return fmt.Errorf("delete prompt v%d: %w", version, err)
	}
	delete(s.cache, channel)

	versions, err := s.versionNumbers(channel)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		if err := os.Remove(filepath.Join(dir, activeFileName)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove active pointer: %w", err)
		}
		logger.Debug("prompts: deleted last version for %s", channel)
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, activeFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read active pointer: %w", err)
	}
	active, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || convErr != nil || active == version || !containsInt(versions, active) {
		latest := versions[len(versions)-1]
		logger.Debug("prompts: repointing %s active version to v%d", channel, latest)
		return s.writeActiveLocked(channel, latest)
	}
	return nil
}

// Close stops the watcher if one is running.
func (s *PromptStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	return s.watcher.Close()
}

// activeVersionLocked reads the active pointer, repairing it to the latest
// stored version when the pointer is missing or names a deleted file.
func (s *PromptStore) activeVersionLocked(channel string) (int, error) {
	versions, err := s.versionNumbers(channel)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("prompts for %q: %w", channel, domain.ErrNotFound)
	}
	latest := versions[len(versions)-1]

	data, err := os.ReadFile(filepath.Join(s.channelDir(channel), activeFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return latest, s.writeActiveLocked(channel, latest)
		}
		return 0, fmt.Errorf("read active pointer: %w", err)
	}

	active, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !containsInt(versions, active) {
		logger.Warn("prompts: repairing stale active pointer for %s (-> v%d)", channel, latest)
		return latest, s.writeActiveLocked(channel, latest)
	}
	return active, nil
}

func (s *PromptStore) writeActiveLocked(channel string, version int) error {
	path := filepath.Join(s.channelDir(channel), activeFileName)
	if err := writeFileAtomic(path, []byte(strconv.Itoa(version))); err != nil {
		return fmt.Errorf("write active pointer: %w", err)
	}
	return nil
}

// versionNumbers lists stored version numbers for the channel in ascending
// order. A missing channel directory yields an empty list, not an error.
func (s *PromptStore) versionNumbers(channel string) ([]int, error) {
	entries, err := os.ReadDir(s.channelDir(channel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read channel directory: %w", err)
	}

	var versions []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, versionFilePrefix) || !strings.HasSuffix(name, versionFileSuffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, versionFilePrefix), versionFileSuffix))
		if err != nil || n < 1 {
			continue
		}
		versions = append(versions, n)
	}
	sort.Ints(versions)
	return versions, nil
}

func (s *PromptStore) readVersion(channel string, version int) (domain.PromptVersion, error) {
	path := filepath.Join(s.channelDir(channel), versionFileName(version))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.PromptVersion{}, fmt.Errorf("%s v%d: %w", channel, version, domain.ErrVersionNotFound)
		}
		return domain.PromptVersion{}, fmt.Errorf("read prompt v%d: %w", version, err)
	}

	var p domain.PromptVersion
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.PromptVersion{}, fmt.Errorf("parse prompt v%d: %w", version, err)
	}
	return p, nil
}

// startWatcher drops cached prompts when anything under root changes.
func (s *PromptStore) startWatcher() error {
	if err := os.MkdirAll(s.root, 0700); err != nil {
		return fmt.Errorf("create prompt root: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.root); err != nil {
		w.Close()
		return fmt.Errorf("watch prompt root: %w", err)
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				logger.Debug("prompts: change detected (%s), dropping cache", event.Name)
				s.mu.Lock()
				s.cache = make(map[string]domain.PromptVersion)
				s.mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("prompts: watcher error: %v", err)
			}
		}
	}()
	return nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
