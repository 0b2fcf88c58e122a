package store

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Paradorn657/RAG-AI/types"
)

// PostgresStore is the indexed alternative to the JSON file backend for
// corpora that outgrow a linear scan. It implements the same KnowledgeStore
// contract: cosine similarity, score threshold, top-k.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) createTables(ctx context.Context) error {

	query := `
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS kb_entries (
        id UUID PRIMARY KEY,
        source_file TEXT NOT NULL DEFAULT '',
        source_type TEXT NOT NULL DEFAULT '',
        position INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(1024) -- multilingual-e5-large
    );

	CREATE INDEX IF NOT EXISTS idx_kb_entries_embedding ON kb_entries USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_kb_entries_source ON kb_entries(source_file, source_type);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float64, k int, minScore float64) ([]types.ScoredEntry, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	vector := pgvector.NewVector(toFloat32(queryVec))

	query := `
		SELECT position, content, source_file, source_type,
		       1 - (embedding <=> $1) AS score
		FROM kb_entries
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1, source_file, position
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, vector, minScore, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []types.ScoredEntry
	for rows.Next() {
		var se types.ScoredEntry
		if err := rows.Scan(
			&se.Entry.ID,
			&se.Entry.Content,
			&se.Entry.File,
			&se.Entry.Type,
			&se.Score,
		); err != nil {
			return nil, err
		}
		scored = append(scored, se)
	}
	return scored, rows.Err()
}

func (p *PostgresStore) ProcessedKeys(ctx context.Context) (map[types.SourceKey]struct{}, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT source_file, source_type FROM kb_entries WHERE source_file <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[types.SourceKey]struct{})
	for rows.Next() {
		var key types.SourceKey
		if err := rows.Scan(&key.File, &key.Type); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

func (p *PostgresStore) AppendEntries(ctx context.Context, entries []types.Entry) error {
	query := `
    INSERT INTO kb_entries (id, source_file, source_type, position, content, embedding)
    VALUES ($1, $2, $3, $4, $5, $6)
    `
	for _, e := range entries {
		_, err := p.pool.Exec(ctx, query,
			uuid.New(), e.File, e.Type, e.ID, e.Content, pgvector.NewVector(toFloat32(e.Embedding)),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry %d of %s: %w", e.ID, e.File, err)
		}
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
