package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/habiliai/aurora/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type (
	// Store persists memory records and answers nearest-neighbour queries.
	Store interface {
		Insert(ctx context.Context, record *Record) error
		// Delete is idempotent: deleting a missing id is not an error.
		Delete(ctx context.Context, id string) error
		// Nearest returns at most k records ordered by ascending cosine
		// distance. When importances are given only those are considered.
		Nearest(ctx context.Context, embedding []float32, k int, importances ...Importance) ([]ScoredRecord, error)
		ListByImportance(ctx context.Context, importance Importance) ([]*Record, error)
		List(ctx context.Context) ([]*Record, error)
		Close() error
	}

	// InMemoryStore keeps records in a map and scores them with gonum.
	InMemoryStore struct {
		mu      sync.RWMutex
		records map[string]*Record
	}
)

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*Record),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return errors.Errorf("memory record '%s' already exists", record.ID)
	}

	s.records[record.ID] = record.clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *InMemoryStore) Nearest(ctx context.Context, embedding []float32, k int, importances ...Importance) ([]ScoredRecord, error) {
	if len(embedding) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "query embedding is empty")
	}
	if k <= 0 {
		return []ScoredRecord{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// only records with a matching dimension can be scored in one matrix
	candidates := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if len(record.Embedding) != len(embedding) {
			continue
		}
		if len(importances) > 0 && !lo.Contains(importances, record.Importance) {
			continue
		}
		candidates = append(candidates, record)
	}
	if len(candidates) == 0 {
		return []ScoredRecord{}, nil
	}

	distances := cosineDistances(candidates, embedding)
	results := make([]ScoredRecord, 0, len(candidates))
	for i, record := range candidates {
		results = append(results, ScoredRecord{
			Record:   record.clone(),
			Distance: distances[i],
		})
	}

	slices.SortFunc(results, func(a, b ScoredRecord) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return olderFirst(a.Record, b.Record)
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// cosineDistances computes 1 - cos(record, query) for every record. A zero
// vector on either side is treated as maximally distant from everything.
func cosineDistances(records []*Record, query []float32) []float64 {
	dim := len(query)

	queryVec := make([]float64, dim)
	for i, v := range query {
		queryVec[i] = float64(v)
	}
	queryNorm := floats.Norm(queryVec, 2)

	data := make([]float64, len(records)*dim)
	norms := make([]float64, len(records))
	for i, record := range records {
		row := data[i*dim : (i+1)*dim]
		for j, v := range record.Embedding {
			row[j] = float64(v)
		}
		norms[i] = floats.Norm(row, 2)
	}

	var dots mat.VecDense
	dots.MulVec(mat.NewDense(len(records), dim, data), mat.NewVecDense(dim, queryVec))

	distances := make([]float64, len(records))
	for i := range records {
		if norms[i] == 0 || queryNorm == 0 {
			distances[i] = 1
			continue
		}
		distances[i] = 1 - dots.AtVec(i)/(norms[i]*queryNorm)
	}

	return distances
}

func (s *InMemoryStore) ListByImportance(ctx context.Context, importance Importance) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Record, 0)
	for _, record := range s.records {
		if record.Importance == importance {
			results = append(results, record.clone())
		}
	}
	slices.SortFunc(results, olderFirst)

	return results, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		results = append(results, record.clone())
	}
	slices.SortFunc(results, olderFirst)

	return results, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
