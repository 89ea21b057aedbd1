package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a pgvector-backed Store. Embeddings are generated through the
// configured Embedder; similarity search uses cosine distance in SQL.
type PGStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// ConnectPG establishes a connection pool and ensures the memory schema
// exists.
func ConnectPG(ctx context.Context, databaseURL string, embedder Embedder) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PGStore{pool: pool, embedder: embedder}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS memory_records (
			id          TEXT PRIMARY KEY,
			run_id      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			client_name TEXT NOT NULL DEFAULT '',
			vertical    TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL DEFAULT '',
			document    TEXT NOT NULL,
			outcome     TEXT NOT NULL DEFAULT '',
			embedding   vector(768) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure memory schema: %w", err)
		}
	}
	return nil
}

// Upsert writes records idempotently. Existing ids are left untouched so a
// retried knowledge-capture cannot rewrite history.
func (s *PGStore) Upsert(ctx context.Context, records []Record) error {
	for _, rec := range records {
		vec, err := s.embedder.Embed(ctx, rec.Document)
		if err != nil {
			return fmt.Errorf("failed to embed record %s: %w", rec.ID, err)
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO memory_records (id, run_id, kind, client_name, vertical, title, document, outcome, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)
			 ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.RunID, string(rec.Kind), rec.ClientName, rec.Vertical,
			rec.Title, rec.Document, rec.Outcome, vectorLiteral(vec),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Query embeds the text and returns the topK closest records by cosine
// similarity, optionally filtered by kind and vertical.
func (s *PGStore) Query(ctx context.Context, text string, f Filters, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 5
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	query := `SELECT id, run_id, kind, client_name, vertical, title, document, outcome, created_at,
		1 - (embedding <=> $1::vector) AS similarity
		FROM memory_records WHERE 1=1`
	args := []any{vectorLiteral(vec)}
	argNum := 2

	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, string(f.Kind))
		argNum++
	}
	if f.Vertical != "" {
		query += fmt.Sprintf(" AND vertical = $%d", argNum)
		args = append(args, f.Vertical)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", argNum)
	args = append(args, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var kind string
		if err := rows.Scan(&rec.ID, &rec.RunID, &kind, &rec.ClientName, &rec.Vertical,
			&rec.Title, &rec.Document, &rec.Outcome, &rec.CreatedAt, &rec.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Kind = RecordKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// vectorLiteral renders a float32 slice in pgvector input syntax.
func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
