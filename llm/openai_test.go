package llm_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, content string, requests *atomic.Int32, captured *map[string]any) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []any{
				map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"logprobs":      nil,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
						"refusal": nil,
					},
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newOpenAIGateway(serverURL string) *llm.OpenAIGateway {
	conf := config.NewModelConfig()
	conf.OpenAIAPIKey = "test-key"
	conf.OpenAIBaseURL = serverURL + "/"
	conf.RequestTimeout = 5 * time.Second
	return llm.NewOpenAIGateway(conf, nil)
}

func TestOpenAIGateway_Complete(t *testing.T) {
	var requests atomic.Int32
	var body map[string]any
	server := newOpenAIServer(t, http.StatusOK, `{"text":"likes tea","category":"preferences","importance":"low","confident":true}`, &requests, &body)

	var out fact
	err := newOpenAIGateway(server.URL).Complete(t.Context(), llm.Request{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.SystemMessage("be brief"), llm.UserMessage("I like tea")},
		Contract: factContract,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "likes tea", out.Text)
	require.NotNil(t, out.Importance)
	assert.EqualValues(t, "low", *out.Importance)
	assert.EqualValues(t, 1, requests.Load())

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.55, body["temperature"], 1e-9)
	assert.InDelta(t, 0.9, body["top_p"], 1e-9)
	assert.InDelta(t, 0.4, body["frequency_penalty"], 1e-9)
	assert.InDelta(t, 0.6, body["presence_penalty"], 1e-9)

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, "fact", jsonSchema["name"])
	assert.Equal(t, true, jsonSchema["strict"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIGateway_TransportFailureIsNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := newOpenAIServer(t, http.StatusServiceUnavailable, "", &requests, nil)

	out := fact{Text: "untouched"}
	err := newOpenAIGateway(server.URL).Complete(t.Context(), llm.Request{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.UserMessage("hi")},
		Contract: factContract,
	}, &out)

	f, ok := llm.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, llm.FailureTransport, f.Kind)
	assert.Equal(t, "fact", f.Contract)
	assert.EqualValues(t, 1, requests.Load())
	assert.Equal(t, "untouched", out.Text)
}

func TestOpenAIGateway_ParseAndContractFailures(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		kind    llm.FailureKind
	}{
		{name: "not json", content: "Sure! Here is your answer.", kind: llm.FailureParse},
		{name: "schema breach", content: `{"text":"likes tea"}`, kind: llm.FailureContract},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var requests atomic.Int32
			server := newOpenAIServer(t, http.StatusOK, tc.content, &requests, nil)

			var out fact
			err := newOpenAIGateway(server.URL).Complete(t.Context(), llm.Request{
				Model:    "gpt-4o-mini",
				Messages: []llm.Message{llm.UserMessage("hi")},
				Contract: factContract,
			}, &out)

			f, ok := llm.AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, f.Kind)
		})
	}
}

func TestNewGateway(t *testing.T) {
	conf := config.NewModelConfig()

	gateway, err := llm.NewGateway(conf, nil)
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIGateway{}, gateway)

	conf.Provider = config.ProviderAnthropic
	gateway, err = llm.NewGateway(conf, nil)
	require.NoError(t, err)
	assert.IsType(t, &llm.AnthropicGateway{}, gateway)

	conf.Provider = "unknown"
	_, err = llm.NewGateway(conf, nil)
	assert.Error(t, err)
}
