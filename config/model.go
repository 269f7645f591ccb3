package config

import (
	"time"

	"github.com/habiliai/aurora/errors"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ModelConfig selects the completion provider and the model used by each call.
// BaseURL lets the OpenAI client talk to any compatible endpoint such as OpenRouter.
type ModelConfig struct {
	Provider        string `env:"AURORA_PROVIDER"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	PlanningModel string `env:"AURORA_PLANNING_MODEL"`
	FinalModel    string `env:"AURORA_FINAL_MODEL"`
	MemoryModel   string `env:"AURORA_MEMORY_MODEL"`

	Temperature      float64       `env:"AURORA_TEMPERATURE"`
	TopP             float64       `env:"AURORA_TOP_P"`
	FrequencyPenalty float64       `env:"AURORA_FREQUENCY_PENALTY"`
	PresencePenalty  float64       `env:"AURORA_PRESENCE_PENALTY"`
	MaxTokens        int64         `env:"AURORA_MAX_TOKENS"`
	RequestTimeout   time.Duration `env:"AURORA_REQUEST_TIMEOUT"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		Provider:         ProviderOpenAI,
		PlanningModel:    "gpt-4o-mini",
		FinalModel:       "gpt-4o",
		MemoryModel:      "gpt-4o-mini",
		Temperature:      0.55,
		TopP:             0.9,
		FrequencyPenalty: 0.4,
		PresencePenalty:  0.6,
		MaxTokens:        2048,
		RequestTimeout:   60 * time.Second,
	}
}

func (c *ModelConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "unknown provider %q", c.Provider)
	}
	if c.PlanningModel == "" || c.FinalModel == "" || c.MemoryModel == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "planning, final and memory models are required")
	}
	if c.RequestTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "request timeout must be positive")
	}
	return nil
}
