package aurora_test

import (
	"context"
	"testing"
	"time"

	"github.com/habiliai/aurora"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/engine"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
	llmtest "github.com/habiliai/aurora/llm/test"
	memorytest "github.com/habiliai/aurora/memory/test"
	"github.com/habiliai/aurora/tool"
	tooltest "github.com/habiliai/aurora/tool/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func inMemoryConfig() *config.Config {
	conf := config.NewConfig()
	conf.MemoryConfig.Backend = config.BackendMemory
	conf.HistoryConfig.Backend = config.BackendMemory
	return conf
}

func TestAuroraTurn(t *testing.T) {
	gateway := &llmtest.GatewayMock{}
	gateway.On("Complete", mock.Anything, llmtest.ForContract("aurora_answer")).Return(`{
		"thoughts": "they want the calculator",
		"tool": "open_app",
		"tool_arguments": {"app_name": "calculator"},
		"final_answer": "Calculator coming right up!",
		"mood": "happy",
		"add_user_preference": null,
		"requires_memory": false,
		"memory_query": "",
		"requires_tool_result": false,
		"requires_follow_up": false
	}`, nil).Once()

	launcher := &tooltest.LauncherMock{}
	launcher.On("Launch", mock.Anything, tool.AppCalculator).Return(nil).Once()

	var shown []string
	a, err := aurora.New(
		aurora.WithConfig(inMemoryConfig()),
		aurora.WithLogger(mylog.Discard()),
		aurora.WithGateway(gateway),
		aurora.WithEmbedder(memorytest.NewFakeEmbedder(16)),
		aurora.WithLauncher(launcher),
		aurora.WithRenderer(engine.RendererFunc(func(_ context.Context, answer string, _ engine.Mood) {
			shown = append(shown, answer)
		})),
		aurora.WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Run(t.Context(), "open calculator")
	require.NoError(t, err)

	assert.Equal(t, "Calculator coming right up!", res.Answer)
	assert.Equal(t, []string{"Calculator coming right up!"}, shown)
	launcher.AssertExpectations(t)

	msgs, err := a.History().Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	req := gateway.Requests("aurora_answer")[0]
	assert.Equal(t, config.NewModelConfig().PlanningModel, req.Model)
	assert.Contains(t, req.Messages[0].Content, "You are Aurora")
}

func TestAuroraRejectsInvalidConfig(t *testing.T) {
	conf := inMemoryConfig()
	conf.MemoryConfig.Backend = "redis"

	_, err := aurora.New(aurora.WithConfig(conf), aurora.WithLogger(mylog.Discard()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestAuroraRejectsAgentWithoutPersona(t *testing.T) {
	_, err := aurora.New(
		aurora.WithConfig(inMemoryConfig()),
		aurora.WithLogger(mylog.Discard()),
		aurora.WithAgent(config.AgentConfig{Name: "Nobody"}),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}
