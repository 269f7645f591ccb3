package tool

import (
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

type (
	// Name identifies one of the tools the assistant may invoke.
	Name string

	// AppName is an application the open_app tool can launch.
	AppName string

	Arguments struct {
		AppName *AppName `json:"app_name" jsonschema:"nullable" jsonschema_description:"Application to open. Required for open_app, null otherwise."`
	}

	Call struct {
		Name      Name
		Arguments Arguments
		// CaptureResult asks for the tool's confirmation text to be returned.
		CaptureResult bool
	}
)

const (
	NameNone    Name = "none"
	NameOpenApp Name = "open_app"

	AppCalculator      AppName = "calculator"
	AppCmd             AppName = "cmd"
	AppWindowsSettings AppName = "windows_settings"
	AppNotepad         AppName = "notepad"
)

var (
	Names    = []Name{NameNone, NameOpenApp}
	AppNames = []AppName{AppCalculator, AppCmd, AppWindowsSettings, AppNotepad}
)

func (n Name) Valid() bool {
	return lo.Contains(Names, n)
}

func (Name) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(Names),
	}
}

func (a AppName) Valid() bool {
	return lo.Contains(AppNames, a)
}

func (AppName) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.ToAnySlice(AppNames),
	}
}

func (a Arguments) IsEmpty() bool {
	return a.AppName == nil
}
