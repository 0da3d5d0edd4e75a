package model

import (
	"context"
	"sync"
)

// MockChatModel is an in-process ChatModel for tests and offline runs.
//
// Replies come from, in priority order: Err, Respond, then Responses.
// Responses are consumed in order and the last one repeats; with no
// responses at all the reply is empty. Every call's messages are
// recorded in Calls, including calls that fail.
//
//	mock := &MockChatModel{Responses: []ChatOut{{Text: `{"description":"noop"}`}}}
type MockChatModel struct {
	Responses []ChatOut
	Err       error

	// Respond, when set, computes the reply from the prompt.
	Respond func(messages []Message) (ChatOut, error)

	// Calls holds the messages of every invocation, in order.
	Calls [][]Message

	mu   sync.Mutex
	next int
}

// Chat implements ChatModel. A cancelled ctx fails before anything is
// recorded.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, append([]Message(nil), messages...))

	switch {
	case m.Err != nil:
		return ChatOut{}, m.Err
	case m.Respond != nil:
		return m.Respond(messages)
	case len(m.Responses) == 0:
		return ChatOut{}, nil
	}

	out := m.Responses[m.next]
	if m.next < len(m.Responses)-1 {
		m.next++
	}
	return out, nil
}

// Reset forgets recorded calls and starts the responses over.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.next = 0
}

// CallCount returns how many times Chat was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the messages of the most recent call.
func (m *MockChatModel) LastCall() ([]Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.Calls); n > 0 {
		return m.Calls[n-1], true
	}
	return nil, false
}
