package memory

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemStore is an in-process Store used when no DATABASE_URL is configured
// and as the test double. Similarity is cosine over embeddings produced by
// the same Embedder as PGStore.
type MemStore struct {
	embedder Embedder

	mu      sync.RWMutex
	records map[string]storedRecord
}

type storedRecord struct {
	rec Record
	vec []float32
}

// NewMemStore creates an empty in-process store.
func NewMemStore(embedder Embedder) *MemStore {
	return &MemStore{
		embedder: embedder,
		records:  make(map[string]storedRecord),
	}
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Upsert writes records idempotently; an id already present is skipped.
func (s *MemStore) Upsert(ctx context.Context, records []Record) error {
	for _, rec := range records {
		s.mu.RLock()
		_, exists := s.records[rec.ID]
		s.mu.RUnlock()
		if exists {
			continue
		}

		vec, err := s.embedder.Embed(ctx, rec.Document)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if _, exists := s.records[rec.ID]; !exists {
			s.records[rec.ID] = storedRecord{rec: rec, vec: vec}
		}
		s.mu.Unlock()
	}
	return nil
}

// Query returns up to topK records ranked by cosine similarity.
func (s *MemStore) Query(ctx context.Context, text string, f Filters, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 5
	}

	qvec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	matches := make([]Record, 0, len(s.records))
	for _, sr := range s.records {
		if f.Kind != "" && sr.rec.Kind != f.Kind {
			continue
		}
		if f.Vertical != "" && sr.rec.Vertical != f.Vertical {
			continue
		}
		rec := sr.rec
		rec.Similarity = cosineSimilarity(qvec, sr.vec)
		matches = append(matches, rec)
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
