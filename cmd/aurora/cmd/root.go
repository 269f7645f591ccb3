package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/habiliai/aurora"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/errors"
	"github.com/spf13/cobra"
)

type rootParams struct {
	ConfigFile string
	EnvFile    string
}

func newRootCmd() *cobra.Command {
	params := &rootParams{}
	cmd := &cobra.Command{
		Use:           "aurora",
		Short:         "Aurora, a personal assistant that remembers you",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&params.ConfigFile, "config", "c", "", "Persona YAML file (defaults to the built-in Aurora persona)")
	cmd.PersistentFlags().StringVar(&params.EnvFile, "env-file", ".env", "Env file to load before the process environment")

	cmd.AddCommand(
		newChatCmd(params),
		newServeCmd(params),
		newMemoryCmd(params),
		newHistoryCmd(params),
	)

	return cmd
}

// load reads the configuration once per command.
func (p *rootParams) load() (*config.Config, config.AgentConfig, error) {
	conf, err := config.Load(p.EnvFile)
	if err != nil {
		return nil, config.AgentConfig{}, err
	}

	agentConf := config.DefaultAgentConfig()
	if p.ConfigFile != "" {
		if agentConf, err = config.LoadAgentFromFile(p.ConfigFile); err != nil {
			return nil, config.AgentConfig{}, err
		}
	}

	return conf, agentConf, nil
}

func (p *rootParams) newAurora(opts ...aurora.Option) (*aurora.Aurora, *config.Config, error) {
	conf, agentConf, err := p.load()
	if err != nil {
		return nil, nil, err
	}

	a, err := aurora.New(append([]aurora.Option{
		aurora.WithConfig(conf),
		aurora.WithAgent(agentConf),
	}, opts...)...)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to start aurora")
	}

	return a, conf, nil
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}
