package config

import (
	_ "embed"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/habiliai/aurora/errors"
)

//go:embed data/aurora.yaml
var defaultAgentYAML []byte

type MessageExample struct {
	User      string `yaml:"user"`
	Assistant string `yaml:"assistant"`
	Mood      string `yaml:"mood"`
}

// AgentConfig is the persona the assistant speaks as.
type AgentConfig struct {
	Name     string   `yaml:"name"`
	UserName string   `yaml:"userName"`
	Persona  string   `yaml:"persona"`
	Bio      []string `yaml:"bio"`
	// Instructions replace the built-in planning and final instructions when set.
	Instructions struct {
		Planning string `yaml:"planning"`
		Final    string `yaml:"final"`
	} `yaml:"instructions"`
	MessageExamples []MessageExample `yaml:"messageExamples"`
}

func (c *AgentConfig) Validate() error {
	if c.Name == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "agent name is required")
	}
	if c.Persona == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "agent %s has no persona", c.Name)
	}
	return nil
}

func DefaultAgentConfig() AgentConfig {
	agent, err := parseAgent(defaultAgentYAML)
	if err != nil {
		panic(err)
	}
	return agent
}

func LoadAgentFromFile(file string) (agent AgentConfig, err error) {
	var yamlBytes []byte
	if yamlBytes, err = os.ReadFile(file); err != nil {
		err = errors.Wrapf(err, "failed to read file %s", file)
		return
	}

	if agent, err = parseAgent(yamlBytes); err != nil {
		err = errors.Wrapf(err, "failed to load agent from %s", file)
		return
	}

	return
}

func parseAgent(yamlBytes []byte) (agent AgentConfig, err error) {
	if err = yaml.Unmarshal(yamlBytes, &agent); err != nil {
		err = errors.Wrapf(err, "failed to unmarshal agent")
		return
	}

	err = agent.Validate()
	return
}
