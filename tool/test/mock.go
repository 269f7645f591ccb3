package tooltest

import (
	"context"

	"github.com/habiliai/aurora/tool"
	"github.com/stretchr/testify/mock"
)

type LauncherMock struct {
	mock.Mock
}

// Launch implements tool.Launcher.
func (m *LauncherMock) Launch(ctx context.Context, app tool.AppName) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

var (
	_ tool.Launcher = (*LauncherMock)(nil)
)
