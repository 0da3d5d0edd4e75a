// Package model provides LLM integration adapters.
//
// The engine never calls a model. Models are used by tooling around it,
// chiefly the advisor, which turns a model reply into a sandbox proposal.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChatModel is a chat-style LLM provider.
//
// Implementations convert Message to the provider format, respect context
// cancellation, and classify provider failures with ClassifyError so callers
// can use errors.Is against the sentinels below.
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleSystem, Content: "Reply with JSON only."},
//	    {Role: model.RoleUser, Content: prompt},
//	})
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is one turn of a conversation.
type Message struct {
	// Role is one of the Role* constants.
	Role string

	Content string
}

// Standard roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut is a model reply.
type ChatOut struct {
	Text string

	// TokensUsed is the provider-reported total (prompt + completion), or 0
	// when the provider does not report usage.
	TokensUsed int
}

var (
	// ErrMissingAPIKey is returned by providers constructed without a key.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrUnauthorized means the key was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout means the request was cancelled or timed out.
	ErrTimeout = errors.New("timeout")

	// ErrEmptyResponse means the provider returned no text.
	ErrEmptyResponse = errors.New("empty response")
)

// ClassifyError wraps a provider error with the matching sentinel. The
// original error stays in the chain. Unrecognized errors are only prefixed
// with the provider name.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classify(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", provider, sentinel, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "authentication", "api_key", "permission"):
		return ErrUnauthorized
	case containsAny(msg, "429", "rate_limit", "rate limit", "too many requests", "resource_exhausted"):
		return ErrRateLimited
	case containsAny(msg, "timeout", "deadline"):
		return ErrTimeout
	default:
		return nil
	}
}

// IsRetryable reports whether a request that failed with err is worth
// retrying: rate limits, timeouts and common transient server failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()),
		"network", "connection", "temporary", "500", "502", "503", "overloaded")
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// SplitSystem separates system messages from the conversation. Multiple
// system messages are joined with a blank line. Providers that take the
// system prompt as a separate parameter use this.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

// NameOf returns m's model name when m exposes one through a
// ModelName() string method, and "" otherwise.
func NameOf(m ChatModel) string {
	if n, ok := m.(interface{ ModelName() string }); ok {
		return n.ModelName()
	}
	return ""
}
