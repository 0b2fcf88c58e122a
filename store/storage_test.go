package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Paradorn657/RAG-AI/types"
)

func testEntries() []types.Entry {
	return []types.Entry{
		{ID: 0, Content: "นโยบายการลาพักร้อน", Embedding: []float64{1, 0}, File: "handbook.pdf", Type: types.TypeOCRLayer},
		{ID: 1, Content: "annual review policy", Embedding: []float64{0, 1}, File: "handbook.pdf", Type: types.TypeOCRLayer},
	}
}

func TestFileStorePersistAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadPartition(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if loaded[0].Content != "นโยบายการลาพักร้อน" {
		t.Fatalf("Thai content did not survive the roundtrip: %q", loaded[0].Content)
	}
	if loaded[1].ID != 1 || loaded[1].File != "handbook.pdf" {
		t.Fatalf("unexpected entry: %+v", loaded[1])
	}

	// partition files stay human-readable: no HTML escaping, indented
	raw, _ := os.ReadFile(path)
	if !bytes.Contains(raw, []byte("นโยบายการลาพักร้อน")) {
		t.Fatal("expected raw UTF-8 content in the partition file")
	}
	if !bytes.Contains(raw, []byte("  \"id\"")) {
		t.Fatal("expected indented JSON in the partition file")
	}
}

func TestFileStoreAppendPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}
	extra := []types.Entry{{ID: 0, Content: "new doc", Embedding: []float64{1, 1}, File: "other.pdf", Type: types.TypeTextLayer}}
	if err := s.AppendEntries(ctx, extra); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadPartition(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(loaded))
	}
	// existing entries keep their order, new ones go behind them
	if loaded[0].Content != "นโยบายการลาพักร้อน" || loaded[2].Content != "new doc" {
		t.Fatalf("append broke entry order: %+v", loaded)
	}
}

func TestFileStoreCorruptPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	ctx := context.Background()

	// ingestion must refuse to overwrite a partition it could not parse
	err := s.AppendEntries(ctx, testEntries())
	if !errors.Is(err, ErrCorruptPartition) {
		t.Fatalf("expected ErrCorruptPartition, got %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "{not json" {
		t.Fatal("corrupt partition was rewritten, original data lost")
	}

	if _, err := s.ProcessedKeys(ctx); !errors.Is(err, ErrCorruptPartition) {
		t.Fatalf("expected ProcessedKeys to fail on corrupt partition, got %v", err)
	}

	// the query path degrades instead: corrupt partition scans as empty
	scored, err := s.Search(ctx, []float64{1, 0}, 3, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 0 {
		t.Fatalf("expected no results from a corrupt partition, got %d", len(scored))
	}
}

func TestFileStoreMissingPartitionIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does_not_exist.json")
	s := NewFileStore(path)
	ctx := context.Background()

	keys, err := s.ProcessedKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %d", len(keys))
	}

	scored, err := s.Search(ctx, []float64{1, 0}, 3, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 0 {
		t.Fatalf("expected empty result, got %d", len(scored))
	}
}

func TestFileStoreProcessedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}

	keys, err := s.ProcessedKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := keys[types.SourceKey{File: "handbook.pdf", Type: types.TypeOCRLayer}]; !ok {
		t.Fatalf("expected (handbook.pdf, ocr_layer) key, got %v", keys)
	}
	if len(keys) != 1 {
		t.Fatalf("expected one distinct key, got %d", len(keys))
	}
}

// Ingestion that skips every file must leave the partition byte-identical.
func TestFileStoreIdempotentReIngestion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// a re-run over processed sources appends nothing
	if err := s.AppendEntries(ctx, nil); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("re-ingestion with no new entries changed the partition file")
	}
}

func TestFileStoreSearchSpansPartitions(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")

	ctx := context.Background()
	if err := NewFileStore(pathA).AppendEntries(ctx, []types.Entry{
		{ID: 0, Content: "low", Embedding: []float64{0.5, 0.866, 0}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := NewFileStore(pathB).AppendEntries(ctx, []types.Entry{
		{ID: 0, Content: "high", Embedding: []float64{0.9, 0.2, 0}},
	}); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(pathA, pathB)
	scored, err := s.Search(ctx, []float64{1, 0, 0}, 1, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 1 || scored[0].Entry.Content != "high" {
		t.Fatalf("expected the higher-scoring entry across partitions, got %+v", scored)
	}
}

func TestFileStorePreloadServesFromCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}
	if err := s.Preload(ctx); err != nil {
		t.Fatal(err)
	}

	// the query path must not depend on the file once preloaded
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	scored, err := s.Search(ctx, []float64{1, 0}, 3, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 1 {
		t.Fatalf("expected cached entry to be served, got %d results", len(scored))
	}
}

func TestFileStoreAppendWithoutPartitions(t *testing.T) {
	s := NewFileStore()
	ctx := context.Background()

	if err := s.AppendEntries(ctx, testEntries()); err == nil {
		t.Fatal("expected an error when no partition is configured")
	}
	// empty batches stay a no-op regardless of configuration
	if err := s.AppendEntries(ctx, nil); err != nil {
		t.Fatalf("empty append should be a no-op, got %v", err)
	}
}
