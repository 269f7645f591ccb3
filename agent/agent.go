package agent

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"

	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/habiliai/aurora/internal/sliceutils"
	"github.com/habiliai/aurora/internal/tmplutils"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/memory"
	"github.com/samber/lo"
)

const DefaultHistoryWindow = 10

var (
	//go:embed data/instructions/planning.md.tmpl
	planningInst     string
	planningInstTmpl = tmplutils.Must("memory_agent_planning", planningInst)

	//go:embed data/instructions/resolution.md.tmpl
	resolutionInst     string
	resolutionInstTmpl = tmplutils.Must("memory_manager_response", resolutionInst)
)

type (
	// MemoryService is the part of memory.Service the agent depends on.
	MemoryService interface {
		AddRecord(ctx context.Context, text string, category memory.Category, importance memory.Importance) (memory.AddResult, error)
		DeleteRecord(ctx context.Context, id string) error
		SearchMemory(ctx context.Context, query string, opts ...memory.SearchOption) ([]memory.Record, error)
	}

	// Preference is a fact the assistant itself noticed while answering.
	Preference struct {
		Text       string            `json:"preference" jsonschema_description:"The fact about the user, at least 5 characters."`
		Category   memory.Category   `json:"category"`
		Importance memory.Importance `json:"importance"`
	}

	// Hints carry what the assistant already concluded about the turn.
	Hints struct {
		MemoryQuery string
		Preference  *Preference
	}

	ProcessOption func(*Hints)

	// Outcome reports what one Process call found and wrote.
	Outcome struct {
		IsNewInfo      bool
		RequiresMemory bool
		Relevant       []memory.Record
		Action         ActionKind
		WrittenID      string
		DeletedID      string
		Duplicate      bool
	}

	// MemoryAgent is the only component that writes long-term memory.
	MemoryAgent struct {
		gateway   llm.Gateway
		memories  MemoryService
		model     string
		agentName string
		userName  string
		window    int
		logger    *slog.Logger
	}

	Option func(*MemoryAgent)
)

func WithLogger(logger *slog.Logger) Option {
	return func(a *MemoryAgent) {
		a.logger = logger
	}
}

func WithHistoryWindow(n int) Option {
	return func(a *MemoryAgent) {
		a.window = n
	}
}

func WithNames(agentName, userName string) Option {
	return func(a *MemoryAgent) {
		a.agentName = agentName
		a.userName = userName
	}
}

func WithMemoryQuery(query string) ProcessOption {
	return func(h *Hints) {
		h.MemoryQuery = query
	}
}

func WithProposedPreference(p *Preference) ProcessOption {
	return func(h *Hints) {
		h.Preference = p
	}
}

func NewMemoryAgent(gateway llm.Gateway, memories MemoryService, model string, opts ...Option) *MemoryAgent {
	a := &MemoryAgent{
		gateway:   gateway,
		memories:  memories,
		model:     model,
		agentName: "Aurora",
		userName:  "User",
		window:    DefaultHistoryWindow,
		logger:    mylog.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process runs the memory agent over one user utterance. dialogue may end with
// the utterance itself. Every failure degrades to an empty outcome.
func (a *MemoryAgent) Process(ctx context.Context, utterance string, dialogue []entity.Message, opts ...ProcessOption) Outcome {
	var hints Hints
	for _, opt := range opts {
		opt(&hints)
	}

	if n := len(dialogue); n > 0 && dialogue[n-1].Role == entity.RoleUser && dialogue[n-1].Content == utterance {
		dialogue = dialogue[:n-1]
	}
	dialogue = sliceutils.Last(dialogue, a.window)

	plan, err := a.plan(ctx, utterance, dialogue, hints)
	if err != nil {
		a.logger.Warn("memory agent planning failed", mylog.Err(err))
		return Outcome{}
	}
	a.logger.Debug("memory agent planned",
		"is_new_info", plan.IsNewInfo,
		"requires_memory", plan.RequiresMemory,
		"memory_query", plan.MemoryQuery,
	)
	if !plan.IsNewInfo && !plan.RequiresMemory {
		return Outcome{}
	}

	var candidates []memory.Record
	if query := a.searchQuery(plan, hints); query != "" {
		if candidates, err = a.memories.SearchMemory(ctx, query); err != nil {
			a.logger.Warn("memory search failed", "query", query, mylog.Err(err))
			return Outcome{}
		}
	}

	resolution, err := a.resolve(ctx, utterance, plan, candidates)
	if err != nil {
		a.logger.Warn("memory agent resolution failed", mylog.Err(err))
		return Outcome{}
	}

	outcome := Outcome{
		IsNewInfo:      plan.IsNewInfo,
		RequiresMemory: plan.RequiresMemory,
		Relevant:       selectRelevant(resolution.RelevantMemories, candidates),
		Action:         ActionSkip,
	}
	if plan.IsNewInfo {
		a.apply(ctx, resolution.NewMemoryAction, candidates, &outcome)
	}

	return outcome
}

func (a *MemoryAgent) plan(ctx context.Context, utterance string, dialogue []entity.Message, hints Hints) (*PlanningResult, error) {
	system, err := tmplutils.Render(planningInstTmpl, map[string]any{
		"AgentName":  a.agentName,
		"UserName":   a.userName,
		"Categories": memory.Categories,
		"Hints":      hints,
		"Dialogue":   dialogue,
	})
	if err != nil {
		return nil, err
	}

	var plan PlanningResult
	if err := a.gateway.Complete(ctx, llm.Request{
		Model:    a.model,
		Messages: []llm.Message{llm.SystemMessage(system), llm.UserMessage(utterance)},
		Contract: planningContract,
	}, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// searchQuery prefers the planned query and falls back to the drafted record,
// then to the orchestrator's own guess.
func (a *MemoryAgent) searchQuery(plan *PlanningResult, hints Hints) string {
	if q := strings.TrimSpace(plan.MemoryQuery); q != "" {
		return q
	}
	if plan.IsNewInfo && plan.NewMemoryRecord != nil {
		if q := strings.TrimSpace(*plan.NewMemoryRecord); q != "" {
			return q
		}
	}
	return strings.TrimSpace(hints.MemoryQuery)
}

func (a *MemoryAgent) resolve(ctx context.Context, utterance string, plan *PlanningResult, candidates []memory.Record) (*Resolution, error) {
	var proposed *NewMemory
	if plan.IsNewInfo {
		proposed = &NewMemory{
			Text:       *plan.NewMemoryRecord,
			Category:   *plan.Category,
			Importance: *plan.Importance,
		}
	}

	system, err := tmplutils.Render(resolutionInstTmpl, map[string]any{
		"AgentName":  a.agentName,
		"UserName":   a.userName,
		"Utterance":  utterance,
		"Proposed":   proposed,
		"Candidates": candidates,
	})
	if err != nil {
		return nil, err
	}

	var resolution Resolution
	if err := a.gateway.Complete(ctx, llm.Request{
		Model:    a.model,
		Messages: []llm.Message{llm.SystemMessage(system), llm.UserMessage(utterance)},
		Contract: resolutionContract,
	}, &resolution); err != nil {
		return nil, err
	}

	return &resolution, nil
}

// apply performs the single write the resolution asks for.
func (a *MemoryAgent) apply(ctx context.Context, action MemoryAction, candidates []memory.Record, outcome *Outcome) {
	outcome.Action = action.Action
	if action.Action == ActionSkip {
		a.logger.Debug("memory agent skipped write")
		return
	}

	if action.Action == ActionUpdate {
		oldID := action.oldID()
		if lo.ContainsBy(candidates, func(r memory.Record) bool { return r.ID == oldID }) {
			if err := a.memories.DeleteRecord(ctx, oldID); err != nil {
				a.logger.Warn("failed to delete replaced memory", "id", oldID, mylog.Err(err))
				return
			}
			outcome.DeletedID = oldID
		} else {
			a.logger.Warn("update names a memory that was not a candidate, adding instead", "id", oldID)
		}
	}

	res, err := a.memories.AddRecord(ctx, action.NewMemory.Text, action.NewMemory.Category, action.NewMemory.Importance)
	if err != nil {
		a.logger.Warn("failed to add memory", mylog.Err(err))
		return
	}
	if res.Duplicate {
		a.logger.Info("memory already known", "existing_id", res.Existing.Record.ID, "distance", res.Existing.Distance)
		outcome.Duplicate = true
		return
	}
	outcome.WrittenID = res.Record.ID
}

// selectRelevant keeps the records the model picked, dropping ids it was never shown.
func selectRelevant(picked []RelevantMemory, candidates []memory.Record) []memory.Record {
	byID := lo.SliceToMap(candidates, func(r memory.Record) (string, memory.Record) { return r.ID, r })

	relevant := make([]memory.Record, 0, len(picked))
	seen := map[string]bool{}
	for _, p := range picked {
		r, ok := byID[p.ID]
		if !ok || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		relevant = append(relevant, r)
	}
	return relevant
}
