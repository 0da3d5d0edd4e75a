// Package openai provides a model.ChatModel for the OpenAI chat completions
// API.
package openai

import (
	"context"

	"github.com/dshills/graphvm/graph/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when NewChatModel is given an empty model name.
const DefaultModel = "gpt-4o-mini"

// ChatModel implements model.ChatModel for OpenAI.
//
//	m := openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), "gpt-4o").WithJSONMode()
type ChatModel struct {
	modelName string
	jsonMode  bool
	client    completionsClient
}

// completionsClient is the part of the SDK ChatModel uses. Tests replace it.
type completionsClient interface {
	createChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// NewChatModel creates an OpenAI model. An empty modelName selects
// DefaultModel. An empty apiKey yields a model whose Chat fails with
// model.ErrMissingAPIKey.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	m := &ChatModel{modelName: modelName}
	if apiKey != "" {
		m.client = &sdkClient{client: openai.NewClient(option.WithAPIKey(apiKey))}
	}
	return m
}

// WithJSONMode asks the API for a JSON object reply. The prompt must
// mention JSON.
func (m *ChatModel) WithJSONMode() *ChatModel {
	m.jsonMode = true
	return m
}

// ModelName returns the configured model.
func (m *ChatModel) ModelName() string {
	return m.modelName
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.client == nil {
		return model.ChatOut{}, model.ClassifyError("openai", model.ErrMissingAPIKey)
	}

	completion, err := m.client.createChatCompletion(ctx, buildParams(m.modelName, m.jsonMode, messages))
	if err != nil {
		return model.ChatOut{}, model.ClassifyError("openai", err)
	}

	out := convertResponse(completion)
	if out.Text == "" {
		return out, model.ClassifyError("openai", model.ErrEmptyResponse)
	}
	return out, nil
}

func buildParams(modelName string, jsonMode bool, messages []model.Message) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelName),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: openai.Ptr(shared.NewResponseFormatJSONObjectParam()),
		}
	}
	return params
}

func convertResponse(c *openai.ChatCompletion) model.ChatOut {
	if c == nil {
		return model.ChatOut{}
	}
	out := model.ChatOut{TokensUsed: int(c.Usage.TotalTokens)}
	if len(c.Choices) > 0 {
		out.Text = c.Choices[0].Message.Content
	}
	return out
}

type sdkClient struct {
	client openai.Client
}

func (c *sdkClient) createChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
