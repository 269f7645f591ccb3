package entity

import (
	"time"

	"github.com/habiliai/aurora/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemoryRecord is the row behind a long-term memory. The vector itself is
// indexed separately; Embedding keeps a copy so records can be returned whole.
type MemoryRecord struct {
	ID         string `gorm:"primaryKey"`
	Text       string `gorm:"type:text;not null"`
	Category   string `gorm:"index:idx_memory_category;not null"`
	Importance string `gorm:"index:idx_memory_importance;not null"`
	// CreatedOn has day precision; CreatedAt orders records created on the same day.
	CreatedOn datatypes.Date
	CreatedAt time.Time
	Embedding datatypes.JSONType[[]float32] `gorm:"type:json"`
}

func (r *MemoryRecord) Save(db *gorm.DB) error {
	return errors.Wrapf(db.Save(r).Error, "failed to save memory record %s", r.ID)
}

func (r *MemoryRecord) Delete(db *gorm.DB) error {
	return errors.Wrapf(db.Delete(r).Error, "failed to delete memory record %s", r.ID)
}
