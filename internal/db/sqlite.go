//go:build !without_sqlite

package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/habiliai/aurora/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSqlite opens (or creates) a WAL-mode SQLite database at path.
// Pass ":memory:" for a private in-memory database; every pooled
// connection of the returned handle sees the same one.
func OpenSqlite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", path)
	if path == ":memory:" {
		dsn = fmt.Sprintf("file:aurora-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %s", path)
	}

	return db, nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrapf(err, "failed to close db")
	}

	return nil
}
