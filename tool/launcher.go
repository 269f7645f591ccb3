package tool

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
)

// Launcher starts an external application.
type Launcher interface {
	Launch(ctx context.Context, app AppName) error
}

// ExecLauncher starts applications from a fixed per-OS command table and
// does not wait for them to exit.
type ExecLauncher struct {
	goos     string
	commands map[AppName][]string
	logger   *slog.Logger
}

var (
	_ Launcher = (*ExecLauncher)(nil)

	launchCommands = map[string]map[AppName][]string{
		"windows": {
			AppCalculator:      {"calc.exe"},
			AppCmd:             {"cmd.exe", "/c", "start", "cmd.exe"},
			AppWindowsSettings: {"cmd.exe", "/c", "start", "ms-settings:"},
			AppNotepad:         {"notepad.exe"},
		},
		"darwin": {
			AppCalculator:      {"open", "-a", "Calculator"},
			AppCmd:             {"open", "-a", "Terminal"},
			AppWindowsSettings: {"open", "-b", "com.apple.systempreferences"},
			AppNotepad:         {"open", "-a", "TextEdit"},
		},
		"linux": {
			AppCalculator:      {"gnome-calculator"},
			AppCmd:             {"x-terminal-emulator"},
			AppWindowsSettings: {"gnome-control-center"},
			AppNotepad:         {"gedit"},
		},
	}
)

func NewExecLauncher(goos string, logger *slog.Logger) *ExecLauncher {
	if logger == nil {
		logger = mylog.Discard()
	}
	return &ExecLauncher{
		goos:     goos,
		commands: launchCommands[goos],
		logger:   logger,
	}
}

// Command reports the command line used to launch app.
func (l *ExecLauncher) Command(app AppName) ([]string, bool) {
	cmd, ok := l.commands[app]
	return cmd, ok
}

func (l *ExecLauncher) Launch(_ context.Context, app AppName) error {
	args, ok := l.commands[app]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "no launch command for %s on %s", app, l.goos)
	}

	// the launched app outlives the turn, so it is not bound to ctx
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", args[0])
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("launched application exited", "app", app, mylog.Err(err))
		}
	}()

	return nil
}
