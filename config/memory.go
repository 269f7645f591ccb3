package config

import (
	"github.com/habiliai/aurora/errors"
)

const (
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
)

type MemoryConfig struct {
	Backend             string  `env:"AURORA_MEMORY_BACKEND"`
	Path                string  `env:"AURORA_MEMORY_PATH"`
	EmbeddingModel      string  `env:"AURORA_EMBEDDING_MODEL"`
	EmbeddingDimensions int     `env:"AURORA_EMBEDDING_DIMENSIONS"`
	DuplicateThreshold  float64 `env:"AURORA_DUPLICATE_THRESHOLD"`
	SearchThreshold     float64 `env:"AURORA_SEARCH_THRESHOLD"`
	SearchLimit         int     `env:"AURORA_SEARCH_LIMIT"`
	// AgentHistoryWindow is how many dialogue turns the memory agent sees.
	AgentHistoryWindow int `env:"AURORA_MEMORY_AGENT_WINDOW"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		Backend:             BackendSqlite,
		Path:                "aurora_memory.db",
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		DuplicateThreshold:  0.30,
		SearchThreshold:     0.7,
		SearchLimit:         10,
		AgentHistoryWindow:  10,
	}
}

func (c *MemoryConfig) Validate() error {
	switch c.Backend {
	case BackendSqlite, BackendMemory:
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "unknown memory backend %q", c.Backend)
	}
	if c.EmbeddingDimensions <= 0 || c.SearchLimit <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "embedding dimensions and search limit must be positive")
	}
	if c.DuplicateThreshold <= 0 || c.SearchThreshold <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "thresholds must be positive")
	}
	return nil
}
