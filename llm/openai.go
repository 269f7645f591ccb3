package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/habiliai/aurora/config"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/samber/lo"
)

// Sampling holds the generation parameters sent with every completion.
type Sampling struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// OpenAIGateway talks to the chat completions API, or any endpoint that
// speaks it, with strict json_schema response formats.
type OpenAIGateway struct {
	client   *openai.Client
	sampling Sampling
	logger   *slog.Logger
}

var (
	_ Gateway = (*OpenAIGateway)(nil)
)

func NewOpenAIGateway(conf *config.ModelConfig, logger *slog.Logger, opts ...option.RequestOption) *OpenAIGateway {
	if logger == nil {
		logger = mylog.Discard()
	}

	timeout := conf.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(conf.OpenAIAPIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if conf.OpenAIBaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(conf.OpenAIBaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	client := openai.NewClient(clientOpts...)
	return &OpenAIGateway{
		client: &client,
		sampling: Sampling{
			Temperature:      conf.Temperature,
			TopP:             conf.TopP,
			FrequencyPenalty: conf.FrequencyPenalty,
			PresencePenalty:  conf.PresencePenalty,
		},
		logger: logger,
	}
}

func (g *OpenAIGateway) Complete(ctx context.Context, req Request, out any) error {
	if err := checkRequest(req); err != nil {
		return newFailure(FailureTransport, req, err)
	}

	params := openai.ChatCompletionNewParams{
		Model:            req.Model,
		Messages:         lo.Map(req.Messages, func(m Message, _ int) openai.ChatCompletionMessageParamUnion { return toOpenAIMessage(m) }),
		Temperature:      openai.Float(g.sampling.Temperature),
		TopP:             openai.Float(g.sampling.TopP),
		FrequencyPenalty: openai.Float(g.sampling.FrequencyPenalty),
		PresencePenalty:  openai.Float(g.sampling.PresencePenalty),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Contract.Name,
					Description: openai.String(req.Contract.Description),
					Schema:      req.Contract.Schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	g.logger.Debug("requesting completion", "model", req.Model, "contract", req.Contract.Name, "messages", len(req.Messages))

	res, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return newFailure(FailureTransport, req, errors.Wrapf(err, "chat completion request failed"))
	}
	if len(res.Choices) == 0 {
		return newFailure(FailureParse, req, errors.Errorf("completion has no choices"))
	}

	message := res.Choices[0].Message
	if message.Refusal != "" {
		return newFailure(FailureContract, req, errors.Wrapf(errors.ErrContract, "model refused: %s", message.Refusal))
	}

	if err := req.Contract.Decode([]byte(message.Content), out); err != nil {
		return decodeFailure(req, err)
	}

	return nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case RoleSystem:
		return openai.SystemMessage(m.Content)
	case RoleAssistant:
		return openai.AssistantMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}
