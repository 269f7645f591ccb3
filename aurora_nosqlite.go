//go:build without_sqlite

package aurora

import (
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/memory"
)

func openSqliteMemoryStore(string, int) (memory.Store, error) {
	return nil, errors.Wrapf(errors.ErrInvalidConfig, "built without sqlite, use the memory backend")
}

func openSqliteHistoryStore(string) (history.Store, error) {
	return nil, errors.Wrapf(errors.ErrInvalidConfig, "built without sqlite, use the memory backend")
}
