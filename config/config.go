package config

import (
	"os"
	"strings"

	"github.com/habiliai/aurora/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

type Config struct {
	LogConfig
	ModelConfig
	MemoryConfig
	HistoryConfig
	ServerConfig
}

func NewConfig() *Config {
	return &Config{
		LogConfig:     *NewLogConfig(),
		ModelConfig:   *NewModelConfig(),
		MemoryConfig:  *NewMemoryConfig(),
		HistoryConfig: *NewHistoryConfig(),
		ServerConfig:  *NewServerConfig(),
	}
}

// Load starts from the defaults, applies the given .env files in order and
// then the process environment, which wins over every file. Missing files
// are skipped.
func Load(envFiles ...string) (*Config, error) {
	values := map[string]any{}
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}

		env, err := godotenv.Read(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read env file %s", file)
		}
		for k, v := range env {
			values[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			values[k] = v
		}
	}

	conf := NewConfig()
	if err := decode(values, conf); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func decode(values map[string]any, conf *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "env",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           conf,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create config decoder")
	}

	if err := decoder.Decode(values); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "failed to decode config: %v", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if err := c.ModelConfig.Validate(); err != nil {
		return err
	}
	if err := c.MemoryConfig.Validate(); err != nil {
		return err
	}
	if c.HistoryConfig.Window <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "history window must be positive")
	}
	return nil
}
