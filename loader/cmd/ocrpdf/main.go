package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Paradorn657/RAG-AI/loader/service"
	"github.com/Paradorn657/RAG-AI/model"
	"github.com/Paradorn657/RAG-AI/store"
	"github.com/Paradorn657/RAG-AI/types"
)

// ocrpdf scans a folder of scanned PDFs, OCRs each one and appends the
// resulting entries to an existing partition, skipping files already
// processed.
func main() {
	mustLoadEnvVariables()
	cfg := types.LoaderConfigFromEnv()

	flag.StringVar(&cfg.SourceDir, "dir", cfg.SourceDir, "folder of scanned PDFs to OCR")
	flag.StringVar(&cfg.Partition, "out", cfg.Partition, "partition file to append to")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contextStore, err := newKnowledgeStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize knowledge store: ", err)
	}

	svc := service.New(contextStore, model.NewEmbedderFromEnv(), cfg)
	if err := svc.IngestOCRFolder(ctx); err != nil {
		log.Fatal("OCR ingestion failed: ", err)
	}
}

// newKnowledgeStore mirrors the server's backend selection so OCR entries
// land wherever queries are served from.
func newKnowledgeStore(ctx context.Context, cfg types.LoaderConfig) (store.KnowledgeStore, error) {
	if os.Getenv("KB_BACKEND") == "postgres" {
		port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
		pool, err := store.NewPostgresStore(ctx, connStr)
		if err != nil {
			return nil, err
		}
		if err := pool.Init(ctx); err != nil {
			return nil, err
		}
		return pool, nil
	}
	return store.NewFileStore(cfg.Partition), nil
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}
