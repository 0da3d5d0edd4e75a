// Package google provides a model.ChatModel for Google's Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/graphvm/graph/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when NewChatModel is given an empty model name.
const DefaultModel = "gemini-2.5-flash"

// ChatModel implements model.ChatModel for Gemini.
//
// System messages become the model's SystemInstruction. All but the last
// remaining message form the chat history; the last is sent.
//
// Replies stopped by a safety filter fail with *SafetyFilterError:
//
//	var safetyErr *google.SafetyFilterError
//	if errors.As(err, &safetyErr) {
//	    log.Printf("blocked: %s", safetyErr.Category())
//	}
type ChatModel struct {
	modelName string
	jsonMode  bool
	client    generativeClient
}

type generateRequest struct {
	model   string
	system  string
	json    bool
	history []*genai.Content
	parts   []genai.Part
}

// generativeClient is the part of the SDK ChatModel uses. Tests replace it.
type generativeClient interface {
	generateContent(ctx context.Context, req generateRequest) (*genai.GenerateContentResponse, error)
}

// NewChatModel creates a Gemini model. An empty modelName selects
// DefaultModel. An empty apiKey yields a model whose Chat fails with
// model.ErrMissingAPIKey.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	m := &ChatModel{modelName: modelName}
	if apiKey != "" {
		m.client = &sdkClient{apiKey: apiKey}
	}
	return m
}

// WithJSONMode requests an application/json reply.
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
		return model.ChatOut{}, model.ClassifyError("google", model.ErrMissingAPIKey)
	}

	req, err := buildRequest(m.modelName, m.jsonMode, messages)
	if err != nil {
		return model.ChatOut{}, err
	}

	resp, err := m.client.generateContent(ctx, req)
	if err != nil {
		return model.ChatOut{}, model.ClassifyError("google", err)
	}

	out, err := convertResponse(resp)
	if err != nil {
		return model.ChatOut{}, err
	}
	if out.Text == "" {
		return out, model.ClassifyError("google", model.ErrEmptyResponse)
	}
	return out, nil
}

func buildRequest(modelName string, jsonMode bool, messages []model.Message) (generateRequest, error) {
	system, conversation := model.SplitSystem(messages)
	if len(conversation) == 0 {
		return generateRequest{}, errors.New("google: at least one non-system message is required")
	}

	req := generateRequest{model: modelName, system: system, json: jsonMode}
	for _, msg := range conversation[:len(conversation)-1] {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		req.history = append(req.history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	req.parts = []genai.Part{genai.Text(conversation[len(conversation)-1].Content)}
	return req, nil
}

func convertResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	out := model.ChatOut{}
	if resp == nil {
		return out, nil
	}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	if len(resp.Candidates) == 0 {
		return out, nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return out, newSafetyFilterError(candidate)
	}
	if candidate.Content == nil {
		return out, nil
	}
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.Text += string(text)
		}
	}
	return out, nil
}

type sdkClient struct {
	apiKey string
}

func (c *sdkClient) generateContent(ctx context.Context, req generateRequest) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer func() { _ = client.Close() }()

	gm := client.GenerativeModel(req.model)
	if req.system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
	}
	if req.json {
		gm.ResponseMIMEType = "application/json"
	}

	cs := gm.StartChat()
	cs.History = req.history
	return cs.SendMessage(ctx, req.parts...)
}

// SafetyFilterError reports a reply blocked by Gemini's safety filters.
type SafetyFilterError struct {
	reason   string
	category string
}

func newSafetyFilterError(c *genai.Candidate) *SafetyFilterError {
	e := &SafetyFilterError{reason: "SAFETY", category: "unspecified"}
	for _, r := range c.SafetyRatings {
		if r != nil && r.Blocked {
			e.category = r.Category.String()
			break
		}
	}
	return e
}

func (e *SafetyFilterError) Error() string {
	return "google: content blocked by safety filter: " + e.category
}

// Category returns the harm category that triggered the block.
func (e *SafetyFilterError) Category() string {
	return e.category
}

// Reason returns why the content was blocked.
func (e *SafetyFilterError) Reason() string {
	return e.reason
}
