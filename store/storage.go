package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Paradorn657/RAG-AI/types"
)

// ErrCorruptPartition marks a partition file that exists but cannot be
// parsed. Ingestion must fail on it: silently starting from empty would
// overwrite the partition on the next persist and lose every prior entry.
var ErrCorruptPartition = errors.New("corrupt partition file")

// KnowledgeStore is the retrieval and ingestion contract shared by the JSON
// file backend and the Postgres backend.
type KnowledgeStore interface {
	// Search scores the whole corpus against queryVec and returns up to k
	// entries with similarity >= minScore, highest first.
	Search(ctx context.Context, queryVec []float64, k int, minScore float64) ([]types.ScoredEntry, error)
	// ProcessedKeys reports every (file, type) pair already persisted.
	ProcessedKeys(ctx context.Context) (map[types.SourceKey]struct{}, error)
	// AppendEntries merges new entries behind the existing ones and
	// persists the result. Single-writer only; concurrent ingestion runs
	// against the same partition are not supported.
	AppendEntries(ctx context.Context, entries []types.Entry) error
}

// FileStore keeps the knowledge base in JSON partition files. The set of
// partitions is treated as one logical corpus for queries; writes go to the
// last partition in the list. The query path may hold a read-only in-memory
// copy for the lifetime of the process (Preload/Reload).
type FileStore struct {
	partitions []string

	mu     sync.RWMutex
	cache  map[string][]types.Entry
	cached bool
}

func NewFileStore(partitions ...string) *FileStore {
	return &FileStore{partitions: partitions}
}

// loadPartition reads one partition file. A missing file surfaces as
// os.ErrNotExist; a file that exists but does not parse surfaces as
// ErrCorruptPartition. Callers decide which of the two is fatal.
func loadPartition(path string) ([]types.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []types.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptPartition, path, err)
	}
	return entries, nil
}

// persistPartition rewrites a whole partition atomically: encode to a temp
// file in the same directory, then rename over the target. A partition is
// never left partially written.
func persistPartition(path string, entries []types.Entry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode partition: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp partition: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write partition: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Preload pulls every readable partition into memory so the query path can
// serve without touching disk. Corrupt or missing partitions are logged and
// skipped here; only ingestion treats corruption as fatal.
func (s *FileStore) Preload(ctx context.Context) error {
	cache := make(map[string][]types.Entry, len(s.partitions))
	total := 0
	for _, path := range s.partitions {
		entries, err := loadPartition(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case errors.Is(err, ErrCorruptPartition):
			log.Printf("[STORE] skipping corrupt partition %s: %v", path, err)
			continue
		case err != nil:
			return err
		}
		cache[path] = entries
		total += len(entries)
	}

	s.mu.Lock()
	s.cache = cache
	s.cached = true
	s.mu.Unlock()

	log.Printf("[STORE] loaded %d entries from %d partition(s)", total, len(cache))
	return nil
}

// Reload refreshes the in-memory copy after an ingestion run.
func (s *FileStore) Reload(ctx context.Context) error {
	return s.Preload(ctx)
}

// allEntries returns the corpus in partition order, from the cache when
// preloaded, otherwise straight from disk.
func (s *FileStore) allEntries() []types.Entry {
	s.mu.RLock()
	cached, cache := s.cached, s.cache
	s.mu.RUnlock()

	var all []types.Entry
	for _, path := range s.partitions {
		if cached {
			all = append(all, cache[path]...)
			continue
		}
		entries, err := loadPartition(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Printf("[STORE] skipping unreadable partition %s: %v", path, err)
			}
			continue
		}
		all = append(all, entries...)
	}
	return all
}

func (s *FileStore) Search(ctx context.Context, queryVec []float64, k int, minScore float64) ([]types.ScoredEntry, error) {
	return Rank(s.allEntries(), queryVec, k, minScore), nil
}

func (s *FileStore) ProcessedKeys(ctx context.Context) (map[types.SourceKey]struct{}, error) {
	keys := make(map[types.SourceKey]struct{})
	for _, path := range s.partitions {
		entries, err := loadPartition(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			// Losing the duplicate-detection state would make the next run
			// re-ingest and clobber; fail loudly instead.
			return nil, err
		}
		for _, e := range entries {
			if e.File != "" {
				keys[e.Key()] = struct{}{}
			}
		}
	}
	return keys, nil
}

// AppendEntries is an explicit load-or-default plus merge: existing entries
// keep their order, new entries go behind them, and the merged list
// replaces the partition in one atomic write.
func (s *FileStore) AppendEntries(ctx context.Context, entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(s.partitions) == 0 {
		return errors.New("file store has no partition to write to")
	}
	target := s.partitions[len(s.partitions)-1]

	existing, err := loadPartition(target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("refusing to overwrite %s: %w", target, err)
	}

	merged := append(existing, entries...)
	if err := persistPartition(target, merged); err != nil {
		return err
	}

	s.mu.Lock()
	if s.cached {
		s.cache[target] = merged
	}
	s.mu.Unlock()

	log.Printf("[STORE] persisted %d entries (+%d new) to %s", len(merged), len(entries), target)
	return nil
}
