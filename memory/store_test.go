package memory_test

import (
	"testing"
	"time"

	"github.com/habiliai/aurora/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newRecord(id string, importance memory.Importance, offset time.Duration, embedding ...float32) *memory.Record {
	return &memory.Record{
		ID:         id,
		Text:       "memory " + id,
		Category:   memory.CategoryHabits,
		Importance: importance,
		CreatedAt:  baseTime.Add(offset),
		Embedding:  embedding,
	}
}

// testStore runs the behaviour every Store backend must share.
func testStore(t *testing.T, newStore func(t *testing.T) memory.Store) {
	t.Run("nearest orders by ascending distance", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, newRecord("a", memory.ImportanceHigh, 0, 1, 0, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("b", memory.ImportanceLow, time.Minute, 0, 1, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("c", memory.ImportanceMedium, 2*time.Minute, 0.8, 0.6, 0)))

		results, err := store.Nearest(ctx, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Record.ID)
		assert.Equal(t, "c", results[1].Record.ID)
		assert.Equal(t, "b", results[2].Record.ID)
		assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
		assert.InDelta(t, 0.2, results[1].Distance, 1e-5)
		assert.InDelta(t, 1.0, results[2].Distance, 1e-5)

		results, err = store.Nearest(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Record.ID)
	})

	t.Run("nearest filters importances without starving k", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, newRecord("crit1", memory.ImportanceCritical, 0, 1, 0, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("crit2", memory.ImportanceCritical, time.Minute, 0.99, 0.01, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("low", memory.ImportanceLow, 2*time.Minute, 0, 0, 1)))

		results, err := store.Nearest(ctx, []float32{1, 0, 0}, 1, memory.SearchableImportances...)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "low", results[0].Record.ID)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, newRecord("a", memory.ImportanceHigh, 0, 1, 0, 0)))
		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "never-existed"))

		results, err := store.Nearest(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("lists oldest first", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, newRecord("late", memory.ImportanceCritical, time.Hour, 1, 0, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("early", memory.ImportanceCritical, 0, 0, 1, 0)))
		require.NoError(t, store.Insert(ctx, newRecord("other", memory.ImportanceLow, 30*time.Minute, 0, 0, 1)))

		critical, err := store.ListByImportance(ctx, memory.ImportanceCritical)
		require.NoError(t, err)
		require.Len(t, critical, 2)
		assert.Equal(t, "early", critical[0].ID)
		assert.Equal(t, "late", critical[1].ID)

		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"early", "other", "late"}, []string{all[0].ID, all[1].ID, all[2].ID})
		assert.Equal(t, []float32{0, 1, 0}, all[0].Embedding)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, newRecord("a", memory.ImportanceHigh, 0, 1, 0, 0)))
		assert.Error(t, store.Insert(ctx, newRecord("a", memory.ImportanceHigh, 0, 0, 1, 0)))
	})
}

func TestInMemoryStore(t *testing.T) {
	testStore(t, func(t *testing.T) memory.Store {
		return memory.NewInMemoryStore()
	})
}

func TestInMemoryStore_ZeroVectorIsFarthest(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Insert(ctx, newRecord("zero", memory.ImportanceHigh, 0, 0, 0, 0)))
	require.NoError(t, store.Insert(ctx, newRecord("x", memory.ImportanceHigh, time.Second, 0, 1, 0)))

	results, err := store.Nearest(ctx, []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].Record.ID)
	assert.Equal(t, 1.0, results[1].Distance)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Insert(ctx, newRecord("a", memory.ImportanceHigh, 0, 1, 0, 0)))

	all, err := store.List(ctx)
	require.NoError(t, err)
	all[0].Text = "mutated"
	all[0].Embedding[0] = 42

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory a", again[0].Text)
	assert.Equal(t, float32(1), again[0].Embedding[0])
}
