package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryingChatModel retries a wrapped model on retryable errors (see
// IsRetryable). Rate-limited attempts back off linearly.
type RetryingChatModel struct {
	Model      ChatModel
	MaxRetries int
	Delay      time.Duration
}

// WithRetry wraps m with maxRetries extra attempts spaced by delay.
func WithRetry(m ChatModel, maxRetries int, delay time.Duration) *RetryingChatModel {
	return &RetryingChatModel{Model: m, MaxRetries: maxRetries, Delay: delay}
}

// Chat calls the wrapped model, retrying retryable failures.
func (r *RetryingChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		out, err := r.Model.Chat(ctx, messages)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			return ChatOut{}, err
		}
		if attempt >= r.MaxRetries {
			break
		}

		delay := r.Delay
		if errors.Is(err, ErrRateLimited) {
			delay = r.Delay * time.Duration(attempt+1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ChatOut{}, ctx.Err()
		}
	}
	return ChatOut{}, fmt.Errorf("failed after %d retries: %w", r.MaxRetries, lastErr)
}

// ModelName reports the wrapped model's name, or "" if it has none.
func (r *RetryingChatModel) ModelName() string {
	return NameOf(r.Model)
}
