package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
)

// AnthropicGateway enforces a contract by offering it as the only tool and
// forcing the model to call it. The tool input is the payload.
type AnthropicGateway struct {
	client    *anthropic.Client
	maxTokens int64
	sampling  Sampling
	logger    *slog.Logger
}

var (
	_ Gateway = (*AnthropicGateway)(nil)
)

func NewAnthropicGateway(conf *config.ModelConfig, logger *slog.Logger, opts ...option.RequestOption) *AnthropicGateway {
	if logger == nil {
		logger = mylog.Discard()
	}

	timeout := conf.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := conf.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(conf.AnthropicAPIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}, opts...)

	client := anthropic.NewClient(clientOpts...)
	return &AnthropicGateway{
		client:    &client,
		maxTokens: maxTokens,
		sampling: Sampling{
			Temperature: conf.Temperature,
		},
		logger: logger,
	}
}

func (g *AnthropicGateway) Complete(ctx context.Context, req Request, out any) error {
	if err := checkRequest(req); err != nil {
		return newFailure(FailureTransport, req, err)
	}

	params, err := g.buildParams(req)
	if err != nil {
		return newFailure(FailureTransport, req, err)
	}

	g.logger.Debug("requesting completion", "model", req.Model, "contract", req.Contract.Name, "messages", len(req.Messages))

	res, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return newFailure(FailureTransport, req, errors.Wrapf(err, "messages request failed"))
	}

	for _, content := range res.Content {
		switch block := content.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if block.Name != req.Contract.Name {
				continue
			}
			if err := req.Contract.Decode(json.RawMessage(block.Input), out); err != nil {
				return decodeFailure(req, err)
			}
			return nil
		}
	}

	return newFailure(FailureParse, req, errors.Errorf("response has no %s tool call (stop reason %s)", req.Contract.Name, res.StopReason))
}

func (g *AnthropicGateway) buildParams(req Request) (anthropic.MessageNewParams, error) {
	schema, err := req.Contract.SchemaMap()
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.sampling.Temperature),
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        req.Contract.Name,
					Description: anthropic.String(req.Contract.Description),
					InputSchema: anthropic.ToolInputSchemaParam{
						Type:       "object",
						Properties: schema["properties"],
						ExtraFields: map[string]any{
							"required":             schema["required"],
							"additionalProperties": false,
						},
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Contract.Name},
		},
	}

	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			if strings.TrimSpace(m.Content) == "" {
				continue
			}
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			// the conversation has to open with a user turn
			if len(params.Messages) == 0 {
				continue
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	if len(params.Messages) == 0 {
		return anthropic.MessageNewParams{}, errors.Wrapf(errors.ErrInvalidParams, "request has no user message")
	}

	return params, nil
}
