//go:build !without_sqlite

package history_test

import (
	"path/filepath"
	"testing"

	"github.com/habiliai/aurora/history"
	"github.com/stretchr/testify/require"
)

func TestGormStore(t *testing.T) {
	testStore(t, func(t *testing.T) history.Store {
		store, err := history.NewSqliteStore(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
