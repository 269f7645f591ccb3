package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/habiliai/aurora/agent"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/llm"
	"github.com/habiliai/aurora/tool"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

const minPreferenceLength = 5

type (
	Mood string

	// PlanningDecision is the assistant's first completion for a turn.
	PlanningDecision struct {
		Thoughts           string            `json:"thoughts" jsonschema_description:"Private reasoning about the message. Never shown to the user."`
		Tool               tool.Name         `json:"tool" jsonschema_description:"Tool to run for this turn, none when no tool is needed."`
		ToolArguments      tool.Arguments    `json:"tool_arguments"`
		FinalAnswer        string            `json:"final_answer" jsonschema_description:"The reply to the user. May be empty when requires_follow_up is true."`
		Mood               Mood              `json:"mood" jsonschema_description:"The mood the reply is spoken in."`
		AddUserPreference  *agent.Preference `json:"add_user_preference" jsonschema:"nullable" jsonschema_description:"A durable fact the user just revealed about themselves, or null."`
		RequiresMemory     bool              `json:"requires_memory" jsonschema_description:"True when a good reply needs facts remembered from earlier conversations."`
		MemoryQuery        string            `json:"memory_query" jsonschema_description:"Search phrase for remembered facts. Empty unless requires_memory."`
		RequiresToolResult bool              `json:"requires_tool_result" jsonschema_description:"True when the reply depends on what the tool returns."`
		RequiresFollowUp   bool              `json:"requires_follow_up" jsonschema_description:"True when the reply must be written again after memories or the tool result are known."`
	}

	// FinalAnswer is the follow-up completion written once memories and tool
	// results are known.
	FinalAnswer struct {
		Thoughts    string `json:"thoughts" jsonschema_description:"Private reasoning. Never shown to the user."`
		FinalAnswer string `json:"final_answer" jsonschema_description:"The reply to the user."`
		Mood        Mood   `json:"mood" jsonschema_description:"The mood the reply is spoken in."`
	}
)

const (
	MoodNeutral    Mood = "neutral"
	MoodHappy      Mood = "happy"
	MoodSad        Mood = "sad"
	MoodAngry      Mood = "angry"
	MoodConfused   Mood = "confused"
	MoodShy        Mood = "shy"
	MoodCurious    Mood = "curious"
	MoodDetermined Mood = "determined"
	MoodExcited    Mood = "excited"
	MoodSurprised  Mood = "surprised"
	MoodPlayful    Mood = "playful"
)

var (
	Moods = []Mood{
		MoodNeutral, MoodHappy, MoodSad, MoodAngry, MoodConfused, MoodShy,
		MoodCurious, MoodDetermined, MoodExcited, MoodSurprised, MoodPlayful,
	}

	planningContract = llm.NewContract[PlanningDecision]("aurora_answer", "Answer the user and decide which tools and memories the turn needs.")
	finalContract    = llm.NewContract[FinalAnswer]("aurora_final", "Write the final reply using the memories and tool results.")
)

func (m Mood) Valid() bool {
	return lo.Contains(Moods, m)
}

func (Mood) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(Moods),
	}
}

// OrNeutral maps anything outside the closed set to neutral.
func (m Mood) OrNeutral() Mood {
	if m.Valid() {
		return m
	}
	return MoodNeutral
}

func (d *PlanningDecision) Validate() error {
	if !d.Tool.Valid() {
		return errors.Errorf("unknown tool %q", d.Tool)
	}
	switch d.Tool {
	case tool.NameNone:
		if !d.ToolArguments.IsEmpty() {
			return errors.New("tool none takes no arguments")
		}
	case tool.NameOpenApp:
		if d.ToolArguments.AppName == nil || !d.ToolArguments.AppName.Valid() {
			return errors.New("open_app requires a known app_name")
		}
	}

	if !d.Mood.Valid() {
		return errors.Errorf("unknown mood %q", d.Mood)
	}
	if d.RequiresFollowUp && !d.RequiresToolResult && !d.RequiresMemory {
		return errors.New("requires_follow_up needs requires_tool_result or requires_memory")
	}

	if p := d.AddUserPreference; p != nil {
		if utf8.RuneCountInString(strings.TrimSpace(p.Text)) < minPreferenceLength {
			return errors.Errorf("preference %q is too short", p.Text)
		}
		if !p.Category.Valid() {
			return errors.Errorf("unknown category %q", p.Category)
		}
		if !p.Importance.Valid() {
			return errors.Errorf("unknown importance %q", p.Importance)
		}
	}

	return nil
}

func (a *FinalAnswer) Validate() error {
	if !a.Mood.Valid() {
		return errors.Errorf("unknown mood %q", a.Mood)
	}
	return nil
}
