package model

import (
	"context"
	"log"
	"os"
)

// Embedder maps a text chunk or query string to a fixed-dimension vector.
// For a fixed model version the same input must always yield the same
// vector; all entries of one partition must come from the same model or
// similarity scores are meaningless.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NewEmbedderFromEnv builds the process-wide embedder from the environment.
// Constructed once at startup and injected; there is no reload without a
// restart.
func NewEmbedderFromEnv() Embedder {
	url := os.Getenv("EMBEDDING_URL")
	modelName := os.Getenv("EMBEDDING_MODEL")
	log.Printf("[EMBEDDER] using embeddings endpoint %s (%s)", url, modelName)
	return NewOllamaEmbedder(url, modelName)
}
