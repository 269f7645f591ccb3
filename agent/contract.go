package agent

import (
	"strings"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/memory"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

type (
	// PlanningResult is the memory agent's first look at an utterance.
	PlanningResult struct {
		Thoughts        string             `json:"thoughts" jsonschema_description:"Short reasoning about whether the message carries durable facts about the user or needs remembered context."`
		IsNewInfo       bool               `json:"is_new_info" jsonschema_description:"True when the message states a durable fact about the user worth remembering."`
		NewMemoryRecord *string            `json:"new_memory_record" jsonschema:"nullable" jsonschema_description:"The fact to remember, one third-person sentence. Null unless is_new_info."`
		Category        *memory.Category   `json:"category" jsonschema:"nullable" jsonschema_description:"Category of the fact. Null unless is_new_info."`
		Importance      *memory.Importance `json:"importance" jsonschema:"nullable" jsonschema_description:"Importance of the fact. Null unless is_new_info."`
		RequiresMemory  bool               `json:"requires_memory" jsonschema_description:"True when answering well needs facts remembered from earlier conversations."`
		MemoryQuery     string             `json:"memory_query" jsonschema_description:"Search phrase for the memory store. Empty when nothing should be searched."`
	}

	ActionKind string

	NewMemory struct {
		Text       string            `json:"text"`
		Category   memory.Category   `json:"category"`
		Importance memory.Importance `json:"importance"`
	}

	MemoryAction struct {
		Action      ActionKind `json:"action" jsonschema_description:"create adds a new memory, update replaces old_memory_id, skip writes nothing."`
		OldMemoryID *string    `json:"old_memory_id" jsonschema:"nullable" jsonschema_description:"Id of the memory to replace. Only for update."`
		NewMemory   *NewMemory `json:"new_memory" jsonschema:"nullable" jsonschema_description:"The memory to write. Required for create and update, null for skip."`
	}

	RelevantMemory struct {
		ID         string            `json:"id"`
		Text       string            `json:"text"`
		Category   memory.Category   `json:"category"`
		Importance memory.Importance `json:"importance"`
	}

	// Resolution is the memory agent's decision once it has seen the candidates.
	Resolution struct {
		RelevantMemories []RelevantMemory `json:"relevant_memories" jsonschema_description:"Candidate memories that help answer the message. May be empty."`
		NewMemoryAction  MemoryAction     `json:"new_memory_action"`
	}
)

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionSkip   ActionKind = "skip"
)

var (
	ActionKinds = []ActionKind{ActionCreate, ActionUpdate, ActionSkip}

	planningContract   = llm.NewContract[PlanningResult]("memory_agent_planning", "Decide whether the message holds new facts about the user or needs remembered context.")
	resolutionContract = llm.NewContract[Resolution]("memory_manager_response", "Pick relevant memories and decide how to store the new fact.")
)

func (ActionKind) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(ActionKinds),
	}
}

func (p *PlanningResult) Validate() error {
	if p.Category != nil && !p.Category.Valid() {
		return errors.Errorf("unknown category %q", *p.Category)
	}
	if p.Importance != nil && !p.Importance.Valid() {
		return errors.Errorf("unknown importance %q", *p.Importance)
	}
	if !p.IsNewInfo {
		return nil
	}
	if p.NewMemoryRecord == nil || strings.TrimSpace(*p.NewMemoryRecord) == "" {
		return errors.New("is_new_info requires new_memory_record")
	}
	if p.Category == nil {
		return errors.New("is_new_info requires category")
	}
	if p.Importance == nil {
		return errors.New("is_new_info requires importance")
	}
	return nil
}

func (m *NewMemory) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return errors.New("new memory text is empty")
	}
	if !m.Category.Valid() {
		return errors.Errorf("unknown category %q", m.Category)
	}
	if !m.Importance.Valid() {
		return errors.Errorf("unknown importance %q", m.Importance)
	}
	return nil
}

func (a *MemoryAction) oldID() string {
	if a.OldMemoryID == nil {
		return ""
	}
	return strings.TrimSpace(*a.OldMemoryID)
}

func (a *MemoryAction) Validate() error {
	switch a.Action {
	case ActionCreate:
		if a.oldID() != "" {
			return errors.New("create must not name old_memory_id")
		}
	case ActionUpdate:
		if a.oldID() == "" {
			return errors.New("update requires old_memory_id")
		}
	case ActionSkip:
		if a.oldID() != "" || a.NewMemory != nil {
			return errors.New("skip takes no old_memory_id or new_memory")
		}
		return nil
	default:
		return errors.Errorf("unknown action %q", a.Action)
	}

	if a.NewMemory == nil {
		return errors.Errorf("%s requires new_memory", a.Action)
	}
	return a.NewMemory.Validate()
}

func (r *Resolution) Validate() error {
	for _, m := range r.RelevantMemories {
		if !m.Category.Valid() || !m.Importance.Valid() {
			return errors.Errorf("relevant memory %s has unknown category or importance", m.ID)
		}
	}
	return r.NewMemoryAction.Validate()
}
