// Package anthropic provides a model.ChatModel for Anthropic's Claude API.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/graphvm/graph/model"
)

// DefaultModel is used when NewChatModel is given an empty model name.
const DefaultModel = "claude-3-5-sonnet-20241022"

const defaultMaxTokens = 4096

// ChatModel implements model.ChatModel for Claude.
//
// System messages are extracted and sent as the separate system parameter
// the Messages API expects.
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}})
type ChatModel struct {
	modelName string
	maxTokens int64
	client    messagesClient
}

// messagesClient is the part of the SDK ChatModel uses. Tests replace it.
type messagesClient interface {
	createMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// NewChatModel creates a Claude model. An empty modelName selects
// DefaultModel. An empty apiKey yields a model whose Chat fails with
// model.ErrMissingAPIKey.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	m := &ChatModel{modelName: modelName, maxTokens: defaultMaxTokens}
	if apiKey != "" {
		m.client = &sdkClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
	}
	return m
}

// WithMaxTokens sets the completion budget.
func (m *ChatModel) WithMaxTokens(n int64) *ChatModel {
	if n > 0 {
		m.maxTokens = n
	}
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
		return model.ChatOut{}, model.ClassifyError("anthropic", model.ErrMissingAPIKey)
	}

	msg, err := m.client.createMessage(ctx, buildParams(m.modelName, m.maxTokens, messages))
	if err != nil {
		return model.ChatOut{}, model.ClassifyError("anthropic", err)
	}

	out := convertResponse(msg)
	if out.Text == "" {
		return out, model.ClassifyError("anthropic", model.ErrEmptyResponse)
	}
	return out, nil
}

func buildParams(modelName string, maxTokens int64, messages []model.Message) anthropic.MessageNewParams {
	system, conversation := model.SplitSystem(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(conversation)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, msg := range conversation {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == model.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	return params
}

func convertResponse(msg *anthropic.Message) model.ChatOut {
	if msg == nil {
		return model.ChatOut{}
	}
	var out model.ChatOut
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}
	out.TokensUsed = int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return out
}

type sdkClient struct {
	client anthropic.Client
}

func (c *sdkClient) createMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return c.client.Messages.New(ctx, params)
}
