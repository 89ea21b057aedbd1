// Package memory provides the similarity-searchable store of past run
// outcomes. Completed runs write play, profile and competitor-proof records
// once; later runs query them to bias context merging and scouting.
package memory

import (
	"context"
	"fmt"
	"time"
)

// RecordKind classifies what a memory record holds.
type RecordKind string

// Memory record kinds.
const (
	KindPlay    RecordKind = "play"
	KindProfile RecordKind = "profile"
	KindProof   RecordKind = "proof"
)

// Record is one retrievable unit of past-run output. Records are written
// exactly once per completed run and never mutated afterward.
type Record struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	Kind       RecordKind `json:"kind"`
	ClientName string     `json:"client_name"`
	Vertical   string     `json:"vertical"`
	Title      string     `json:"title,omitempty"`
	Document   string     `json:"document"`
	Outcome    string     `json:"outcome,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Similarity is populated on query results only (0..1, higher is closer).
	Similarity float64 `json:"similarity,omitempty"`
}

// RecordID derives the deterministic composite id for a record, making
// Upsert idempotent per (run, kind, index).
func RecordID(runID string, kind RecordKind, index int) string {
	return fmt.Sprintf("%s/%s/%d", runID, kind, index)
}

// Filters narrows a similarity query by record metadata.
type Filters struct {
	Kind     RecordKind
	Vertical string
}

// Embedder produces an embedding vector for a text. The LLM client
// satisfies this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the read/write contract the pipeline depends on. Similarity
// scoring and storage durability belong to the implementation.
type Store interface {
	// Query returns up to topK records ranked by descending similarity to
	// the given text, optionally narrowed by filters.
	Query(ctx context.Context, text string, f Filters, topK int) ([]Record, error)
	// Upsert writes records, idempotent per record id. Records without an
	// embedding are embedded from their document first.
	Upsert(ctx context.Context, records []Record) error
}
