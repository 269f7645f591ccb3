package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
)

const (
	DefaultDuplicateThreshold = 0.30
	DefaultSearchLimit        = 10
	DefaultSearchThreshold    = 0.7
)

type (
	// Service is the memory store the rest of the application talks to.
	// Embeddings are computed once, when a record is created.
	Service struct {
		store    Store
		embedder Embedder
		logger   *slog.Logger
		now      func() time.Time

		duplicateThreshold float64
		searchLimit        int
		searchThreshold    float64

		// writeMu makes the duplicate check and the insert one step.
		writeMu sync.Mutex

		mu         sync.Mutex
		lastSearch []Record
	}

	ServiceOption func(*Service)

	SearchOption func(*searchOptions)

	searchOptions struct {
		limit     int
		threshold float64
	}
)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithDuplicateThreshold(threshold float64) ServiceOption {
	return func(s *Service) {
		s.duplicateThreshold = threshold
	}
}

// WithSearchDefaults sets the limit and threshold SearchMemory uses when the
// caller passes none.
func WithSearchDefaults(limit int, threshold float64) ServiceOption {
	return func(s *Service) {
		s.searchLimit = limit
		s.searchThreshold = threshold
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func WithLimit(k int) SearchOption {
	return func(o *searchOptions) {
		o.limit = k
	}
}

func WithThreshold(t float64) SearchOption {
	return func(o *searchOptions) {
		o.threshold = t
	}
}

func NewService(store Store, embedder Embedder, opts ...ServiceOption) *Service {
	s := &Service{
		store:              store,
		embedder:           embedder,
		logger:             mylog.Discard(),
		now:                time.Now,
		duplicateThreshold: DefaultDuplicateThreshold,
		searchLimit:        DefaultSearchLimit,
		searchThreshold:    DefaultSearchThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRecord stores a new memory unless one already lies closer than the
// duplicate threshold, in which case nothing is written and the existing
// record is reported. The duplicate check spans every importance.
func (s *Service) AddRecord(ctx context.Context, text string, category Category, importance Importance) (AddResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AddResult{}, errors.Wrapf(errors.ErrInvalidParams, "memory text is empty")
	}
	if !category.Valid() {
		return AddResult{}, errors.Wrapf(errors.ErrInvalidParams, "unknown category %q", category)
	}
	if !importance.Valid() {
		return AddResult{}, errors.Wrapf(errors.ErrInvalidParams, "unknown importance %q", importance)
	}

	embedding, err := s.embedOne(ctx, text)
	if err != nil {
		return AddResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	nearest, err := s.store.Nearest(ctx, embedding, 1)
	if err != nil {
		return AddResult{}, errors.Wrapf(err, "failed to check for duplicates")
	}
	if len(nearest) > 0 && nearest[0].Distance < s.duplicateThreshold {
		s.logger.Debug("duplicate memory skipped",
			"text", text,
			"existing_id", nearest[0].Record.ID,
			"distance", nearest[0].Distance,
		)
		existing := nearest[0]
		return AddResult{Duplicate: true, Existing: &existing}, nil
	}

	record := &Record{
		ID:         ulid.Make().String(),
		Text:       text,
		Category:   category,
		Importance: importance,
		CreatedAt:  s.now(),
		Embedding:  embedding,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return AddResult{}, errors.Wrapf(err, "failed to insert memory")
	}

	s.logger.Info("memory added", "id", record.ID, "category", category, "importance", importance)
	return AddResult{Record: record}, nil
}

// DeleteRecord removes a memory. Unknown ids are not an error.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete memory %s", id)
	}

	s.mu.Lock()
	s.lastSearch = lo.Reject(s.lastSearch, func(r Record, _ int) bool { return r.ID == id })
	s.mu.Unlock()

	s.logger.Info("memory deleted", "id", id)
	return nil
}

// SearchMemory returns non-critical memories closer to query than the
// threshold, nearest first. When nothing qualifies it returns the result of
// the last search that did find something, or nothing if there was none.
func (s *Service) SearchMemory(ctx context.Context, query string, opts ...SearchOption) ([]Record, error) {
	o := searchOptions{
		limit:     s.searchLimit,
		threshold: s.searchThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "search query is empty")
	}

	embedding, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	nearest, err := s.store.Nearest(ctx, embedding, o.limit, SearchableImportances...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search memories")
	}

	results := make([]Record, 0, len(nearest))
	for _, n := range nearest {
		if n.Distance < o.threshold {
			results = append(results, *n.Record)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(results) > 0 {
		s.lastSearch = cloneRecords(results)
		return results, nil
	}

	s.logger.Debug("memory search found nothing, reusing last result", "query", query, "cached", len(s.lastSearch))
	return cloneRecords(s.lastSearch), nil
}

// GetCriticalMemories returns the text of every critical memory, oldest first.
func (s *Service) GetCriticalMemories(ctx context.Context) ([]string, error) {
	records, err := s.store.ListByImportance(ctx, ImportanceCritical)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list critical memories")
	}

	return lo.Map(records, func(r *Record, _ int) string { return r.Text }), nil
}

func (s *Service) ListRecords(ctx context.Context) ([]*Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list memories")
	}
	return records, nil
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) embedOne(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed text")
	}
	if len(embeddings) != 1 || len(embeddings[0]) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "embedder returned no vector")
	}
	return embeddings[0], nil
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return lo.Map(records, func(r Record, _ int) Record { return *r.clone() })
}
