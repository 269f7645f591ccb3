package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
)

type handler func(ctx context.Context, args Arguments) (string, error)

// Executor runs tools from the closed set. Failures never escape: they are
// logged and the call becomes a no-op.
type Executor struct {
	launcher Launcher
	logger   *slog.Logger
	handlers map[Name]handler
}

func NewExecutor(launcher Launcher, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = mylog.Discard()
	}

	e := &Executor{
		launcher: launcher,
		logger:   logger,
	}
	e.handlers = map[Name]handler{
		NameOpenApp: e.openApp,
	}

	return e
}

// Execute runs call and returns the confirmation text when the call asked to
// capture it. ok is false whenever nothing ran or nothing was captured.
func (e *Executor) Execute(ctx context.Context, call Call) (result string, ok bool) {
	if call.Name == NameNone || call.Name == "" {
		return "", false
	}

	h, exists := e.handlers[call.Name]
	if !exists {
		e.logger.Warn("unknown tool requested", "tool", call.Name)
		return "", false
	}

	out, err := h(ctx, call.Arguments)
	if err != nil {
		e.logger.Warn("tool failed", "tool", call.Name, mylog.Err(err))
		return "", false
	}

	e.logger.Info("tool executed", "tool", call.Name, "result", out)
	if !call.CaptureResult || out == "" {
		return "", false
	}

	return out, true
}

func (e *Executor) openApp(ctx context.Context, args Arguments) (string, error) {
	if args.AppName == nil {
		return "", errors.Wrapf(errors.ErrInvalidParams, "open_app requires app_name")
	}

	app := *args.AppName
	if !app.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidParams, "unknown application %q", app)
	}

	if err := e.launcher.Launch(ctx, app); err != nil {
		return "", err
	}

	return fmt.Sprintf("Opened %s.", app), nil
}
