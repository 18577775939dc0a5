package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Yulia51188/fish-house/internal/conversation"
)

// mockAPI implements API for testing.
type mockAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
}

func newMockAPI() *mockAPI {
	return &mockAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *mockAPI) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockAPI) callbacks() []tgbotapi.CallbackConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, r := range m.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (m *mockAPI) messages() []tgbotapi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, s := range m.sent {
		if msg, ok := s.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

// recordingDispatcher records events and replies with a fixed outcome.
type recordingDispatcher struct {
	mu      sync.Mutex
	events  []conversation.Event
	outcome conversation.Outcome
	err     error
	done    chan struct{}
}

func newRecordingDispatcher(expected int) *recordingDispatcher {
	return &recordingDispatcher{done: make(chan struct{}, expected)}
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev conversation.Event) (conversation.Outcome, error) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
	d.done <- struct{}{}
	return d.outcome, d.err
}

func (d *recordingDispatcher) recorded() []conversation.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]conversation.Event(nil), d.events...)
}
