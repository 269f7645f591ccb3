//go:build !without_sqlite

package aurora

import (
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/memory"
)

func openSqliteMemoryStore(path string, dimensions int) (memory.Store, error) {
	return memory.NewSqliteStore(path, dimensions)
}

func openSqliteHistoryStore(path string) (history.Store, error) {
	return history.NewSqliteStore(path)
}
