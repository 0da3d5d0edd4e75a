package google

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/graphvm/graph/model"
	"github.com/google/generative-ai-go/genai"
)

type fakeClient struct {
	resp *genai.GenerateContentResponse
	err  error
	reqs []generateRequest
}

func (f *fakeClient) generateContent(_ context.Context, req generateRequest) (*genai.GenerateContentResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func textResponse(text string, tokens int32) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: tokens},
	}
}

func TestNewChatModel(t *testing.T) {
	if NewChatModel("k", "").ModelName() != DefaultModel {
		t.Error("default model not applied")
	}
	_, err := NewChatModel("", "").Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}})
	if !errors.Is(err, model.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestChatModel_Chat(t *testing.T) {
	fake := &fakeClient{resp: textResponse("hello", 7)}
	m := &ChatModel{modelName: "gemini-test", client: fake}
	m.WithJSONMode()

	out, err := m.Chat(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "q1"},
		{Role: model.RoleAssistant, Content: "a1"},
		{Role: model.RoleUser, Content: "q2"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != "hello" || out.TokensUsed != 7 {
		t.Errorf("out = %+v", out)
	}

	req := fake.reqs[0]
	if req.model != "gemini-test" || req.system != "sys" || !req.json {
		t.Errorf("req = %+v", req)
	}
	if len(req.history) != 2 || req.history[0].Role != "user" || req.history[1].Role != "model" {
		t.Errorf("history = %+v", req.history)
	}
	if len(req.parts) != 1 || req.parts[0] != genai.Text("q2") {
		t.Errorf("parts = %v", req.parts)
	}
}

func TestChatModel_OnlySystem(t *testing.T) {
	m := &ChatModel{modelName: "x", client: &fakeClient{}}
	if _, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleSystem, Content: "s"}}); err == nil {
		t.Error("expected error without a user message")
	}
}

func TestChatModel_SafetyFilter(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
			SafetyRatings: []*genai.SafetyRating{
				{Category: genai.HarmCategoryHarassment, Blocked: false},
				{Category: genai.HarmCategoryDangerousContent, Blocked: true},
			},
		}},
	}
	m := &ChatModel{modelName: "x", client: &fakeClient{resp: resp}}

	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "q"}})
	var safetyErr *SafetyFilterError
	if !errors.As(err, &safetyErr) {
		t.Fatalf("err = %v, want *SafetyFilterError", err)
	}
	if safetyErr.Reason() != "SAFETY" {
		t.Errorf("Reason = %q", safetyErr.Reason())
	}
	if safetyErr.Category() != genai.HarmCategoryDangerousContent.String() {
		t.Errorf("Category = %q", safetyErr.Category())
	}
}

func TestChatModel_ClientError(t *testing.T) {
	m := &ChatModel{modelName: "x", client: &fakeClient{err: errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")}}
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "q"}})
	if !errors.Is(err, model.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}
