package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/habiliai/aurora/agent"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/tool"
)

const DefaultHistoryWindow = 30

const (
	// ApologyMessage is shown when the assistant could not plan a reply.
	ApologyMessage = "Sorry, I had a technical problem. Please try again later."
	// ErrorMessage is shown when the follow-up reply could not be written.
	ErrorMessage = "I can't answer right now because of an error."
	// EmptyAnswer stands in for a reply that was empty after cleanup.
	EmptyAnswer = "…"
)

type (
	// MemoryAgent decides what to remember and recall for a turn.
	MemoryAgent interface {
		Process(ctx context.Context, utterance string, dialogue []entity.Message, opts ...agent.ProcessOption) agent.Outcome
	}

	CriticalMemories interface {
		GetCriticalMemories(ctx context.Context) ([]string, error)
	}

	ToolExecutor interface {
		Execute(ctx context.Context, call tool.Call) (string, bool)
	}

	// Renderer shows a finished reply to the user.
	Renderer interface {
		Render(ctx context.Context, answer string, mood Mood)
	}

	RendererFunc func(ctx context.Context, answer string, mood Mood)

	Engine struct {
		// mu serializes turns.
		mu sync.Mutex

		gateway  llm.Gateway
		history  history.Store
		critical CriticalMemories
		memory   MemoryAgent
		executor ToolExecutor
		renderer Renderer

		persona       config.AgentConfig
		planningModel string
		finalModel    string
		historyWindow int
		now           func() time.Time
		logger        *slog.Logger
	}

	Option func(*Engine)
)

func (f RendererFunc) Render(ctx context.Context, answer string, mood Mood) {
	f(ctx, answer, mood)
}

func WithPlanningModel(model string) Option {
	return func(e *Engine) {
		e.planningModel = model
	}
}

func WithFinalModel(model string) Option {
	return func(e *Engine) {
		e.finalModel = model
	}
}

func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		e.historyWindow = n
	}
}

func WithPersona(persona config.AgentConfig) Option {
	return func(e *Engine) {
		e.persona = persona
	}
}

func WithRenderer(r Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(
	gateway llm.Gateway,
	history history.Store,
	critical CriticalMemories,
	memory MemoryAgent,
	executor ToolExecutor,
	opts ...Option,
) *Engine {
	m := config.NewModelConfig()
	e := &Engine{
		gateway:       gateway,
		history:       history,
		critical:      critical,
		memory:        memory,
		executor:      executor,
		renderer:      RendererFunc(func(context.Context, string, Mood) {}),
		persona:       config.DefaultAgentConfig(),
		planningModel: m.PlanningModel,
		finalModel:    m.FinalModel,
		historyWindow: DefaultHistoryWindow,
		now:           time.Now,
		logger:        mylog.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History exposes the dialogue log the engine writes to.
func (e *Engine) History() history.Store {
	return e.history
}

// ClearHistory empties the dialogue log. It waits for a running turn.
func (e *Engine) ClearHistory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Clear(ctx)
}
