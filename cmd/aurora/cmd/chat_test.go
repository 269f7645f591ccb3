package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/habiliai/aurora"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/engine"
	"github.com/habiliai/aurora/internal/mylog"
	llmtest "github.com/habiliai/aurora/llm/test"
	memorytest "github.com/habiliai/aurora/memory/test"
	tooltest "github.com/habiliai/aurora/tool/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatLoop(t *testing.T) {
	conf := config.NewConfig()
	conf.MemoryConfig.Backend = config.BackendMemory
	conf.HistoryConfig.Backend = config.BackendMemory

	gateway := &llmtest.GatewayMock{}
	gateway.On("Complete", mock.Anything, llmtest.ForContract("aurora_answer")).Return(`{
		"thoughts": "",
		"tool": "none",
		"tool_arguments": {"app_name": null},
		"final_answer": "Hello to you too!",
		"mood": "happy",
		"add_user_preference": null,
		"requires_memory": false,
		"memory_query": "",
		"requires_tool_result": false,
		"requires_follow_up": false
	}`, nil).Once()

	var out bytes.Buffer
	a, err := aurora.New(
		aurora.WithConfig(conf),
		aurora.WithLogger(mylog.Discard()),
		aurora.WithGateway(gateway),
		aurora.WithEmbedder(memorytest.NewFakeEmbedder(8)),
		aurora.WithLauncher(&tooltest.LauncherMock{}),
		aurora.WithRenderer(engine.RendererFunc(func(_ context.Context, answer string, mood engine.Mood) {
			fmt.Fprintf(&out, "Aurora (%s): %s\n", mood, answer)
		})),
	)
	require.NoError(t, err)
	defer a.Close()

	in := strings.NewReader("hello\n\n/clear\n/quit\nnever read\n")
	require.NoError(t, chatLoop(t.Context(), a, in, &out))

	assert.Contains(t, out.String(), "Aurora (happy): Hello to you too!")
	assert.Contains(t, out.String(), "Conversation cleared.")
	gateway.AssertNumberOfCalls(t, "Complete", 1)

	msgs, err := a.History().Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChatLoopInterruptWaitsForTurn(t *testing.T) {
	conf := config.NewConfig()
	conf.MemoryConfig.Backend = config.BackendMemory
	conf.HistoryConfig.Backend = config.BackendMemory

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var turnErr error
	gateway := &llmtest.GatewayMock{}
	gateway.On("Complete", mock.Anything, llmtest.ForContract("aurora_answer")).Run(func(args mock.Arguments) {
		cancel()
		turnErr = args.Get(0).(context.Context).Err()
	}).Return(`{
		"thoughts": "",
		"tool": "none",
		"tool_arguments": {"app_name": null},
		"final_answer": "Good night!",
		"mood": "calm",
		"add_user_preference": null,
		"requires_memory": false,
		"memory_query": "",
		"requires_tool_result": false,
		"requires_follow_up": false
	}`, nil).Once()

	a, err := aurora.New(
		aurora.WithConfig(conf),
		aurora.WithLogger(mylog.Discard()),
		aurora.WithGateway(gateway),
		aurora.WithEmbedder(memorytest.NewFakeEmbedder(8)),
		aurora.WithRenderer(engine.RendererFunc(func(context.Context, string, engine.Mood) {})),
	)
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	in := strings.NewReader("bye\nnever sent\n")
	require.NoError(t, chatLoop(ctx, a, in, &out))

	assert.NoError(t, turnErr)
	gateway.AssertNumberOfCalls(t, "Complete", 1)

	msgs, err := a.History().Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Good night!", msgs[1].Content)
}

func TestChatLoopEndsOnEOF(t *testing.T) {
	conf := config.NewConfig()
	conf.MemoryConfig.Backend = config.BackendMemory
	conf.HistoryConfig.Backend = config.BackendMemory

	a, err := aurora.New(
		aurora.WithConfig(conf),
		aurora.WithLogger(mylog.Discard()),
		aurora.WithGateway(&llmtest.GatewayMock{}),
		aurora.WithEmbedder(memorytest.NewFakeEmbedder(8)),
	)
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, chatLoop(t.Context(), a, strings.NewReader(""), &out))
	assert.Equal(t, "> \n", out.String())
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"chat"},
		{"serve"},
		{"memory", "list"},
		{"memory", "critical"},
		{"memory", "search"},
		{"memory", "add"},
		{"memory", "delete"},
		{"history", "clear"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
