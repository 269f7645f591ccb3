package engine

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/habiliai/aurora/agent"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/habiliai/aurora/internal/stringutils"
	"github.com/habiliai/aurora/internal/tmplutils"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/memory"
	"github.com/habiliai/aurora/tool"
	"github.com/samber/lo"
)

type Phase string

const (
	PhaseIntake   Phase = "intake"
	PhasePlanning Phase = "planning"
	PhaseMemory   Phase = "memory"
	PhaseTool     Phase = "tool"
	PhaseFinal    Phase = "final"
	PhaseRender   Phase = "render"
)

var (
	//go:embed data/instructions/persona.md.tmpl
	personaInst string

	//go:embed data/instructions/planning.md
	DefaultPlanningInstructions string
	//go:embed data/instructions/planning.md.tmpl
	planningInst     string
	planningInstTmpl = tmplutils.Must("aurora_answer", personaInst+planningInst)

	//go:embed data/instructions/final.md
	DefaultFinalInstructions string
	//go:embed data/instructions/final.md.tmpl
	finalInst     string
	finalInstTmpl = tmplutils.Must("aurora_final", personaInst+finalInst)
)

type (
	// TurnResult reports how far a turn got and what it decided.
	TurnResult struct {
		TurnID     string
		Answer     string
		Mood       Mood
		Phase      Phase
		Planning   *PlanningDecision
		Outcome    agent.Outcome
		ToolResult string
		FollowUp   bool
		Failed     bool
	}

	promptValues struct {
		Agent            config.AgentConfig
		Instructions     string
		CriticalMemories []string
		Elapsed          string

		Tools       []tool.Name
		Apps        []tool.AppName
		Moods       []Mood
		Categories  []memory.Category
		Importances []memory.Importance

		Thoughts   string
		Draft      string
		Relevant   []memory.Record
		ToolResult string
	}
)

// Run processes one user message end to end. Concurrent calls are queued.
// Only history failures are returned; completion, memory and tool failures
// degrade to a fixed reply or a skipped step.
func (e *Engine) Run(ctx context.Context, text string) (*TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &TurnResult{TurnID: uuid.NewString(), Phase: PhaseIntake}
	logger := e.logger.With("turn_id", result.TurnID)
	now := e.now()

	lastSpoke, err := e.history.LastUserMessageTime(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read last user message time")
	}
	if err := e.history.Append(ctx, entity.NewUserMessage(text, now)); err != nil {
		return nil, errors.Wrapf(err, "failed to append user message")
	}
	dialogue, err := e.history.Recent(ctx, e.historyWindow)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recent history")
	}

	values := promptValues{
		Agent:            e.persona,
		CriticalMemories: e.criticalMemories(ctx, logger),
		Elapsed:          NarrateElapsed(lastSpoke, now),
		Tools:            tool.Names,
		Apps:             tool.AppNames,
		Moods:            Moods,
		Categories:       memory.Categories,
		Importances:      memory.Importances,
	}

	result.Phase = PhasePlanning
	plan, err := e.plan(ctx, values, dialogue)
	if err != nil {
		logger.Warn("planning completion failed", mylog.Err(err))
		result.Failed = true
		e.display(ctx, result, ApologyMessage, MoodConfused)
		return result, nil
	}
	result.Planning = plan
	logger.Debug("planned turn",
		"tool", plan.Tool,
		"requires_memory", plan.RequiresMemory,
		"requires_tool_result", plan.RequiresToolResult,
		"requires_follow_up", plan.RequiresFollowUp,
		"has_preference", plan.AddUserPreference != nil,
	)

	if plan.RequiresMemory || plan.AddUserPreference != nil {
		result.Phase = PhaseMemory
		var opts []agent.ProcessOption
		if plan.MemoryQuery != "" {
			opts = append(opts, agent.WithMemoryQuery(plan.MemoryQuery))
		}
		if plan.AddUserPreference != nil {
			opts = append(opts, agent.WithProposedPreference(plan.AddUserPreference))
		}
		result.Outcome = e.memory.Process(ctx, text, dialogue, opts...)
	}

	if plan.Tool != tool.NameNone {
		result.Phase = PhaseTool
		result.ToolResult, _ = e.executor.Execute(ctx, tool.Call{
			Name:          plan.Tool,
			Arguments:     plan.ToolArguments,
			CaptureResult: plan.RequiresToolResult,
		})
	}

	answer, mood := plan.FinalAnswer, plan.Mood
	if plan.RequiresFollowUp || cleanAnswer(answer) == "" {
		result.Phase = PhaseFinal
		result.FollowUp = true

		values.Thoughts = plan.Thoughts
		values.Draft = cleanAnswer(plan.FinalAnswer)
		values.Relevant = result.Outcome.Relevant
		values.ToolResult = result.ToolResult

		final, err := e.final(ctx, values, dialogue)
		if err != nil {
			logger.Warn("final completion failed", mylog.Err(err))
			result.Failed = true
			e.display(ctx, result, ErrorMessage, MoodConfused)
			return result, nil
		}
		answer, mood = final.FinalAnswer, final.Mood
	}

	result.Phase = PhaseRender
	answer = cleanAnswer(answer)
	if answer == "" {
		answer = EmptyAnswer
	}
	mood = mood.OrNeutral()

	if err := e.history.Append(ctx, entity.NewAssistantMessage(answer, string(mood), e.now())); err != nil {
		return nil, errors.Wrapf(err, "failed to append assistant message")
	}
	e.display(ctx, result, answer, mood)

	logger.Info("turn completed", "mood", mood, "follow_up", result.FollowUp)
	return result, nil
}

func (e *Engine) criticalMemories(ctx context.Context, logger *slog.Logger) []string {
	critical, err := e.critical.GetCriticalMemories(ctx)
	if err != nil {
		logger.Warn("failed to load critical memories", mylog.Err(err))
		return nil
	}
	return critical
}

func (e *Engine) plan(ctx context.Context, values promptValues, dialogue []entity.Message) (*PlanningDecision, error) {
	values.Instructions = lo.CoalesceOrEmpty(e.persona.Instructions.Planning, DefaultPlanningInstructions)

	var plan PlanningDecision
	if err := e.complete(ctx, e.planningModel, planningContract, planningInstTmpl, values, dialogue, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (e *Engine) final(ctx context.Context, values promptValues, dialogue []entity.Message) (*FinalAnswer, error) {
	values.Instructions = lo.CoalesceOrEmpty(e.persona.Instructions.Final, DefaultFinalInstructions)

	var final FinalAnswer
	if err := e.complete(ctx, e.finalModel, finalContract, finalInstTmpl, values, dialogue, &final); err != nil {
		return nil, err
	}
	return &final, nil
}

func (e *Engine) complete(
	ctx context.Context,
	model string,
	contract *llm.Contract,
	tmpl *template.Template,
	values promptValues,
	dialogue []entity.Message,
	out any,
) error {
	system, err := tmplutils.Render(tmpl, values)
	if err != nil {
		return err
	}

	messages := make([]llm.Message, 0, len(dialogue)+1)
	messages = append(messages, llm.SystemMessage(system))
	for _, m := range dialogue {
		switch m.Role {
		case entity.RoleUser:
			messages = append(messages, llm.UserMessage(m.Content))
		case entity.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(m.Content))
		}
	}

	return e.gateway.Complete(ctx, llm.Request{
		Model:    model,
		Messages: messages,
		Contract: contract,
	}, out)
}

func (e *Engine) display(ctx context.Context, result *TurnResult, answer string, mood Mood) {
	result.Answer = answer
	result.Mood = mood
	e.renderer.Render(ctx, answer, mood)
}

func cleanAnswer(s string) string {
	return strings.TrimSpace(stringutils.SanitizeUnicodeString(stringutils.StripReasoning(s)))
}

