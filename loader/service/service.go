package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Paradorn657/RAG-AI/loader/internal"
	"github.com/Paradorn657/RAG-AI/model"
	"github.com/Paradorn657/RAG-AI/store"
	"github.com/Paradorn657/RAG-AI/types"
)

// Service drives ingestion: extract text from PDFs, chunk it, embed each
// chunk, and persist the entries. Ingestion runs are serialized by policy —
// one run at a time per partition, never overlapping with another writer.
type Service struct {
	logger   *slog.Logger
	store    store.KnowledgeStore
	embedder model.Embedder
	cfg      types.LoaderConfig
}

func New(storer store.KnowledgeStore, embedder model.Embedder, cfg types.LoaderConfig) *Service {
	return &Service{
		logger:   slog.Default(),
		store:    storer,
		embedder: embedder,
		cfg:      cfg,
	}
}

// IngestPDF processes one text-native PDF into knowledge base entries and
// persists them. A file whose (name, text_layer) key is already persisted
// is skipped, so re-runs are safe.
func (s *Service) IngestPDF(ctx context.Context, filePath string) error {
	fileName := filepath.Base(filePath)

	processed, err := s.store.ProcessedKeys(ctx)
	if err != nil {
		return err
	}
	if _, ok := processed[types.SourceKey{File: fileName, Type: types.TypeTextLayer}]; ok {
		s.logger.Info("skipping file, already processed", "file", fileName, "type", types.TypeTextLayer)
		return nil
	}

	text, err := internal.ExtractText(filePath, s.cfg.CropTop, s.cfg.CropBottom)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", filePath, err)
	}

	entries := s.buildEntries(ctx, text, fileName, types.TypeTextLayer)
	if len(entries) == 0 {
		s.logger.Warn("no chunks produced, skipping", "file", fileName)
		return nil
	}

	if err := s.store.AppendEntries(ctx, entries); err != nil {
		return err
	}
	s.logger.Info("ingested document", "file", fileName, "chunks", len(entries))
	return nil
}

// IngestOCRFolder scans a folder of scanned PDFs, OCRs each file that has
// not been ingested yet and appends the entries behind the existing ones.
// Re-running over a fully processed folder leaves the partition untouched.
func (s *Service) IngestOCRFolder(ctx context.Context) error {
	runID := uuid.New()
	workDir := filepath.Join(s.cfg.TempDir, runID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	s.logger.Info("starting OCR ingestion run", "run_id", runID, "dir", s.cfg.SourceDir)

	processed, err := s.store.ProcessedKeys(ctx)
	if err != nil {
		return err
	}

	files, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory %s: %w", s.cfg.SourceDir, err)
	}

	opts := internal.DefaultOCROptions(s.cfg.TesseractCmd, s.cfg.TesseractLang)

	for _, file := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".pdf") {
			continue
		}
		if _, ok := processed[types.SourceKey{File: file.Name(), Type: types.TypeOCRLayer}]; ok {
			s.logger.Info("skipping file, already processed with OCR", "file", file.Name())
			continue
		}

		filePath := filepath.Join(s.cfg.SourceDir, file.Name())
		s.logger.Info("processing OCR PDF", "file", filePath)

		rawText, err := internal.OCRDocument(ctx, filePath, workDir, opts)
		if err != nil {
			// One unreadable document must not abort the run.
			s.logger.Error("OCR failed, skipping file", "file", file.Name(), "error", err)
			continue
		}

		cleaned := model.CleanText(rawText)
		if cleaned == "" {
			s.logger.Warn("no meaningful text extracted via OCR, skipping", "file", file.Name())
			continue
		}

		entries := s.buildEntries(ctx, cleaned, file.Name(), types.TypeOCRLayer)
		if len(entries) == 0 {
			s.logger.Warn("no chunks created from OCR text, skipping", "file", file.Name())
			continue
		}

		if err := s.store.AppendEntries(ctx, entries); err != nil {
			return err
		}
		s.logger.Info("appended OCR entries", "file", file.Name(), "chunks", len(entries))
	}
	return nil
}

// buildEntries chunks the text and embeds every chunk. A chunk whose
// embedding call fails is dropped and logged; ingestion continues with the
// rest.
func (s *Service) buildEntries(ctx context.Context, text, fileName, extractionType string) []types.Entry {
	chunks := model.SplitChunks(text, s.cfg.MaxChunkLen)

	entries := make([]types.Entry, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			s.logger.Error("failed to embed chunk, dropping it", "file", fileName, "chunk", i, "error", err)
			continue
		}
		entries = append(entries, types.Entry{
			ID:        i,
			Content:   chunk,
			Embedding: embedding,
			File:      fileName,
			Type:      extractionType,
		})
	}
	return entries
}
