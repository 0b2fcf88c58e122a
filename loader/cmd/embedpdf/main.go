package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Paradorn657/RAG-AI/loader/service"
	"github.com/Paradorn657/RAG-AI/model"
	"github.com/Paradorn657/RAG-AI/store"
	"github.com/Paradorn657/RAG-AI/types"
)

// embedpdf processes a single text-native PDF into a partition file.
func main() {
	mustLoadEnvVariables()
	cfg := types.LoaderConfigFromEnv()

	var filePath string
	flag.StringVar(&filePath, "file", "", "path to the PDF to ingest")
	flag.StringVar(&cfg.Partition, "out", cfg.Partition, "partition file to create or append to")
	flag.Parse()

	if filePath == "" {
		log.Fatal("usage: embedpdf -file <document.pdf> [-out <partition.json>]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.New(store.NewFileStore(cfg.Partition), model.NewEmbedderFromEnv(), cfg)
	if err := svc.IngestPDF(ctx, filePath); err != nil {
		log.Fatal("ingestion failed: ", err)
	}
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}
