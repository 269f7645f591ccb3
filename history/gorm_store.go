//go:build !without_sqlite

package history

import (
	"context"
	"slices"
	"time"

	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/errors"
	mydb "github.com/habiliai/aurora/internal/db"
	"gorm.io/gorm"
)

// GormStore keeps the dialogue in a SQL table through gorm.
type GormStore struct {
	db *gorm.DB
}

var (
	_ Store = (*GormStore)(nil)
)

func NewSqliteStore(dbPath string) (*GormStore, error) {
	db, err := mydb.OpenSqlite(dbPath)
	if err != nil {
		return nil, err
	}

	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&entity.Message{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate messages table")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Append(ctx context.Context, message *entity.Message) error {
	return message.Save(s.db.WithContext(ctx))
}

func (s *GormStore) Recent(ctx context.Context, n int) ([]entity.Message, error) {
	if n <= 0 {
		return []entity.Message{}, nil
	}

	var messages []entity.Message
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&messages).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load recent messages")
	}
	slices.Reverse(messages)

	return messages, nil
}

func (s *GormStore) LastUserMessageTime(ctx context.Context) (*time.Time, error) {
	var messages []entity.Message
	if err := s.db.WithContext(ctx).
		Where("role = ?", entity.RoleUser).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&messages).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load last user message")
	}
	if len(messages) == 0 {
		return nil, nil
	}

	t := messages[0].CreatedAt
	return &t, nil
}

// Clear removes every message permanently.
func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&entity.Message{}).Error; err != nil {
		return errors.Wrapf(err, "failed to clear messages")
	}
	return nil
}

func (s *GormStore) Close() error {
	return mydb.CloseDB(s.db)
}
