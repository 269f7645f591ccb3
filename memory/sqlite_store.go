//go:build !without_sqlite

package memory

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/errors"
	mydb "github.com/habiliai/aurora/internal/db"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SqliteStore implements Store on SQLite. Record rows live in a regular table
// and vectors in a sqlite-vec vec0 table keyed by record id.
type SqliteStore struct {
	db     *gorm.DB
	vecDim int
}

var (
	_ Store = (*SqliteStore)(nil)

	// maxKNN is the largest k a vec0 KNN query accepts.
	maxKNN = 4096
)

func NewSqliteStore(dbPath string, dimension int) (*SqliteStore, error) {
	if dimension <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "invalid embedding dimension %d", dimension)
	}

	sqlite_vec.Auto()

	db, err := mydb.OpenSqlite(dbPath)
	if err != nil {
		return nil, err
	}

	store := &SqliteStore{
		db:     db,
		vecDim: dimension,
	}

	if err := db.AutoMigrate(&entity.MemoryRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate memory table")
	}

	if err := store.createVectorTable(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SqliteStore) createVectorTable() error {
	var sqliteVersion, vecVersion string
	err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion)
	if err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(
			record_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.vecDim)

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create memory_vectors table")
	}

	return nil
}

func (s *SqliteStore) Insert(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "record id is required")
	}
	if len(record.Embedding) != s.vecDim {
		return errors.Wrapf(errors.ErrInvalidParams, "embedding has %d dimensions, store expects %d", len(record.Embedding), s.vecDim)
	}

	serialized, err := sqlite_vec.SerializeFloat32(record.Embedding)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize embedding")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := entity.MemoryRecord{
			ID:         record.ID,
			Text:       record.Text,
			Category:   string(record.Category),
			Importance: string(record.Importance),
			CreatedOn:  datatypes.Date(record.CreatedAt),
			CreatedAt:  record.CreatedAt,
			Embedding:  datatypes.NewJSONType(record.Embedding),
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrapf(err, "failed to save memory record %s", record.ID)
		}

		if err := tx.Exec("INSERT INTO memory_vectors (record_id, embedding) VALUES (?, ?)", record.ID, serialized).Error; err != nil {
			return errors.Wrapf(err, "failed to insert memory vector")
		}

		return nil
	})
}

func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM memory_vectors WHERE record_id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete memory vector")
		}
		if err := (&entity.MemoryRecord{ID: id}).Delete(tx); err != nil {
			return err
		}
		return nil
	})
}

func (s *SqliteStore) Nearest(ctx context.Context, embedding []float32, k int, importances ...Importance) ([]ScoredRecord, error) {
	if len(embedding) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "query embedding is empty")
	}
	if len(embedding) != s.vecDim {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "query has %d dimensions, store expects %d", len(embedding), s.vecDim)
	}
	if k <= 0 {
		return []ScoredRecord{}, nil
	}

	tx := s.db.WithContext(ctx)

	importanceNames := lo.Map(importances, func(i Importance, _ int) string { return string(i) })

	// vec0 cannot filter on columns of another table, so ask for enough
	// neighbours that excluded rows can never starve the result.
	limit := k
	if len(importances) > 0 {
		var excluded int64
		if err := tx.Model(&entity.MemoryRecord{}).
			Where("importance NOT IN ?", importanceNames).
			Count(&excluded).Error; err != nil {
			return nil, errors.Wrapf(err, "failed to count excluded records")
		}
		limit += int(excluded)
	}

	serializedQuery, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	var rows *sql.Rows
	if limit <= maxKNN {
		rows, err = tx.Raw(`
			SELECT record_id, distance
			FROM memory_vectors
			WHERE embedding MATCH ? AND k = ?
			ORDER BY distance
		`, serializedQuery, limit).Rows()
	} else {
		// past the KNN limit, score the allowed rows directly
		q := tx.Table("memory_vectors AS v").
			Select("v.record_id, vec_distance_cosine(v.embedding, ?) AS distance", serializedQuery).
			Joins("JOIN memory_records AS r ON r.id = v.record_id")
		if len(importances) > 0 {
			q = q.Where("r.importance IN ?", importanceNames)
		}
		rows, err = q.Order("distance").Limit(k).Rows()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to execute knn query")
	}
	defer rows.Close()

	type neighbour struct {
		ID       string
		Distance float64
	}
	var neighbours []neighbour
	for rows.Next() {
		var n neighbour
		if err := rows.Scan(&n.ID, &n.Distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan knn row")
		}
		neighbours = append(neighbours, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read knn rows")
	}
	if len(neighbours) == 0 {
		return []ScoredRecord{}, nil
	}

	var found []entity.MemoryRecord
	if err := tx.Where("id IN ?", lo.Map(neighbours, func(n neighbour, _ int) string { return n.ID })).
		Find(&found).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch memory records")
	}
	byID := lo.SliceToMap(found, func(row entity.MemoryRecord) (string, *Record) {
		return row.ID, toRecord(&row)
	})

	results := make([]ScoredRecord, 0, k)
	for _, n := range neighbours {
		record, ok := byID[n.ID]
		if !ok {
			continue
		}
		if len(importances) > 0 && !lo.Contains(importances, record.Importance) {
			continue
		}
		results = append(results, ScoredRecord{Record: record, Distance: n.Distance})
	}

	slices.SortStableFunc(results, func(a, b ScoredRecord) int {
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

func (s *SqliteStore) ListByImportance(ctx context.Context, importance Importance) ([]*Record, error) {
	var rows []entity.MemoryRecord
	if err := s.db.WithContext(ctx).
		Where("importance = ?", string(importance)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list %s memories", importance)
	}

	return lo.Map(rows, func(row entity.MemoryRecord, _ int) *Record { return toRecord(&row) }), nil
}

func (s *SqliteStore) List(ctx context.Context) ([]*Record, error) {
	var rows []entity.MemoryRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list memories")
	}

	return lo.Map(rows, func(row entity.MemoryRecord, _ int) *Record { return toRecord(&row) }), nil
}

func (s *SqliteStore) Close() error {
	return mydb.CloseDB(s.db)
}

func toRecord(row *entity.MemoryRecord) *Record {
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Time(row.CreatedOn)
	}
	return &Record{
		ID:         row.ID,
		Text:       row.Text,
		Category:   Category(row.Category),
		Importance: Importance(row.Importance),
		CreatedAt:  createdAt,
		Embedding:  row.Embedding.Data(),
	}
}
