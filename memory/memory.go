package memory

import (
	"time"

	"github.com/habiliai/aurora/errors"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

type (
	// Category is what a memory is about.
	Category string

	// Importance decides how a memory is surfaced. Critical memories are
	// injected into every turn and never returned by similarity search.
	Importance string

	Record struct {
		ID         string     `json:"id"`
		Text       string     `json:"text"`
		Category   Category   `json:"category"`
		Importance Importance `json:"importance"`
		CreatedAt  time.Time  `json:"created_at"`

		Embedding []float32 `json:"-"`
	}

	// ScoredRecord carries the cosine distance (1 - cosine similarity) to a query.
	ScoredRecord struct {
		Record   *Record `json:"record"`
		Distance float64 `json:"distance"`
	}

	// AddResult reports what AddRecord did. When Duplicate is set nothing was
	// written and Existing is the record that blocked the insert.
	AddResult struct {
		Record    *Record
		Duplicate bool
		Existing  *ScoredRecord
	}
)

const (
	CategoryIdentity      Category = "identity"
	CategoryHabits        Category = "habits"
	CategoryInterests     Category = "interests"
	CategorySkills        Category = "skills"
	CategoryGoals         Category = "goals"
	CategoryRelationships Category = "relationships"
	CategoryBoundaries    Category = "boundaries"
	CategoryPreferences   Category = "preferences"
	CategoryPlannedEvents Category = "planned_events"
	CategoryPromises      Category = "promises"

	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

var (
	Categories = []Category{
		CategoryIdentity,
		CategoryHabits,
		CategoryInterests,
		CategorySkills,
		CategoryGoals,
		CategoryRelationships,
		CategoryBoundaries,
		CategoryPreferences,
		CategoryPlannedEvents,
		CategoryPromises,
	}
	Importances = []Importance{
		ImportanceCritical,
		ImportanceHigh,
		ImportanceMedium,
		ImportanceLow,
	}
	SearchableImportances = []Importance{
		ImportanceHigh,
		ImportanceMedium,
		ImportanceLow,
	}
)

func (c Category) Valid() bool {
	return lo.Contains(Categories, c)
}

func (Category) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(Categories),
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidParams, "unknown category %q", s)
	}
	return c, nil
}

func (i Importance) Valid() bool {
	return lo.Contains(Importances, i)
}

func (Importance) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(Importances),
	}
}

func ParseImportance(s string) (Importance, error) {
	i := Importance(s)
	if !i.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidParams, "unknown importance %q", s)
	}
	return i, nil
}

func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Embedding = append([]float32(nil), r.Embedding...)
	return &c
}

// olderFirst orders records by creation time, then by id.
func olderFirst(a, b *Record) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
