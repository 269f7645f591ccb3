package aurora

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/habiliai/aurora/agent"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/engine"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/memory"
	"github.com/habiliai/aurora/server"
	"github.com/habiliai/aurora/tool"
	"github.com/openai/openai-go/option"
)

type (
	// Aurora owns every component of the assistant and the stores behind them.
	Aurora struct {
		engine   *engine.Engine
		memories *memory.Service
		history  history.Store
		logger   *slog.Logger

		conf      *config.Config
		agentConf config.AgentConfig

		gateway     llm.Gateway
		embedder    memory.Embedder
		memoryStore memory.Store
		launcher    tool.Launcher
		renderer    engine.Renderer
		now         func() time.Time

		closers []io.Closer
	}

	Option func(*Aurora)
)

func WithConfig(conf *config.Config) Option {
	return func(a *Aurora) {
		a.conf = conf
	}
}

func WithAgent(agentConf config.AgentConfig) Option {
	return func(a *Aurora) {
		a.agentConf = agentConf
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aurora) {
		a.logger = logger
	}
}

func WithGateway(gateway llm.Gateway) Option {
	return func(a *Aurora) {
		a.gateway = gateway
	}
}

func WithEmbedder(embedder memory.Embedder) Option {
	return func(a *Aurora) {
		a.embedder = embedder
	}
}

func WithMemoryStore(store memory.Store) Option {
	return func(a *Aurora) {
		a.memoryStore = store
	}
}

func WithHistoryStore(store history.Store) Option {
	return func(a *Aurora) {
		a.history = store
	}
}

func WithLauncher(launcher tool.Launcher) Option {
	return func(a *Aurora) {
		a.launcher = launcher
	}
}

func WithRenderer(renderer engine.Renderer) Option {
	return func(a *Aurora) {
		a.renderer = renderer
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aurora) {
		a.now = now
	}
}

func New(optionFuncs ...Option) (_ *Aurora, err error) {
	a := &Aurora{
		conf:      config.NewConfig(),
		agentConf: config.DefaultAgentConfig(),
		now:       time.Now,
	}
	for _, f := range optionFuncs {
		f(a)
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.conf.Validate(); err != nil {
		return nil, err
	}
	if err := a.agentConf.Validate(); err != nil {
		return nil, err
	}

	if a.logger == nil {
		a.logger = mylog.NewLogger(a.conf.LogLevel, a.conf.LogHandler)
	}

	if a.gateway == nil {
		if a.gateway, err = llm.NewGateway(&a.conf.ModelConfig, a.logger); err != nil {
			return nil, err
		}
	}

	if a.embedder == nil {
		opts := []option.RequestOption{option.WithRequestTimeout(a.conf.RequestTimeout)}
		if a.conf.OpenAIAPIKey != "" {
			opts = append(opts, option.WithAPIKey(a.conf.OpenAIAPIKey))
		}
		if a.conf.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(a.conf.OpenAIBaseURL))
		}
		a.embedder = memory.NewOpenAIEmbedder(a.conf.EmbeddingModel, a.conf.EmbeddingDimensions, opts...)
	}

	if a.memoryStore == nil {
		if a.memoryStore, err = openMemoryStore(&a.conf.MemoryConfig); err != nil {
			return nil, err
		}
	}
	a.closers = append(a.closers, a.memoryStore)
	a.memories = memory.NewService(
		a.memoryStore,
		a.embedder,
		memory.WithLogger(a.logger.With("component", "memory")),
		memory.WithDuplicateThreshold(a.conf.DuplicateThreshold),
		memory.WithSearchDefaults(a.conf.SearchLimit, a.conf.SearchThreshold),
		memory.WithClock(a.now),
	)

	if a.history == nil {
		if a.history, err = openHistoryStore(&a.conf.HistoryConfig); err != nil {
			return nil, err
		}
		if c, ok := a.history.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	if a.launcher == nil {
		a.launcher = tool.NewExecLauncher(runtime.GOOS, a.logger)
	}

	memoryAgent := agent.NewMemoryAgent(
		a.gateway,
		a.memories,
		a.conf.MemoryModel,
		agent.WithLogger(a.logger.With("component", "memory_agent")),
		agent.WithHistoryWindow(a.conf.AgentHistoryWindow),
		agent.WithNames(a.agentConf.Name, a.agentConf.UserName),
	)

	engineOpts := []engine.Option{
		engine.WithPersona(a.agentConf),
		engine.WithPlanningModel(a.conf.PlanningModel),
		engine.WithFinalModel(a.conf.FinalModel),
		engine.WithHistoryWindow(a.conf.HistoryConfig.Window),
		engine.WithClock(a.now),
		engine.WithLogger(a.logger.With("component", "engine")),
	}
	if a.renderer != nil {
		engineOpts = append(engineOpts, engine.WithRenderer(a.renderer))
	}
	a.engine = engine.NewEngine(
		a.gateway,
		a.history,
		a.memories,
		memoryAgent,
		tool.NewExecutor(a.launcher, a.logger.With("component", "tool")),
		engineOpts...,
	)

	a.logger.Debug("aurora ready",
		"agent", a.agentConf.Name,
		"provider", a.conf.Provider,
		"memory_backend", a.conf.MemoryConfig.Backend,
		"history_backend", a.conf.HistoryConfig.Backend,
	)

	return a, nil
}

func (a *Aurora) Run(ctx context.Context, text string) (*engine.TurnResult, error) {
	return a.engine.Run(ctx, text)
}

func (a *Aurora) Engine() *engine.Engine {
	return a.engine
}

func (a *Aurora) Memories() *memory.Service {
	return a.memories
}

func (a *Aurora) History() history.Store {
	return a.history
}

func (a *Aurora) Agent() config.AgentConfig {
	return a.agentConf
}

func (a *Aurora) Logger() *slog.Logger {
	return a.logger
}

// Handler serves the HTTP surface over this instance.
func (a *Aurora) Handler() http.Handler {
	return server.NewHandler(a.engine, a.history, a.memories, a.logger.With("component", "server"))
}

func (a *Aurora) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return errors.Errorf("failed to close aurora: %v", errs)
	}
	return nil
}

func openMemoryStore(conf *config.MemoryConfig) (memory.Store, error) {
	switch conf.Backend {
	case config.BackendMemory:
		return memory.NewInMemoryStore(), nil
	case config.BackendSqlite:
		return openSqliteMemoryStore(conf.Path, conf.EmbeddingDimensions)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown memory backend %q", conf.Backend)
	}
}

func openHistoryStore(conf *config.HistoryConfig) (history.Store, error) {
	switch conf.Backend {
	case config.BackendMemory:
		return history.NewInMemoryStore(), nil
	case config.BackendSqlite:
		return openSqliteHistoryStore(conf.Path)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown history backend %q", conf.Backend)
	}
}
