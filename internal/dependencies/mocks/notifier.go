package mocks

import (
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
)

// SentMessage is one recorded outbound event
type SentMessage struct {
	To      model.ConnectionID
	Event   model.EventName
	Payload any
}

// MockNotifier records every event the session layer sends
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentMessage
}

// NewMockNotifier creates an empty MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SendTo records the event
func (n *MockNotifier) SendTo(id model.ConnectionID, event model.EventName, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentMessage{To: id, Event: event, Payload: payload})
}

// Sent returns a copy of everything recorded so far
func (n *MockNotifier) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

// SentTo returns the messages delivered to one connection, in order
func (n *MockNotifier) SentTo(id model.ConnectionID) []SentMessage {
	var out []SentMessage
	for _, m := range n.Sent() {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

// Count returns how many times event was sent to id
func (n *MockNotifier) Count(id model.ConnectionID, event model.EventName) int {
	count := 0
	for _, m := range n.SentTo(id) {
		if m.Event == event {
			count++
		}
	}
	return count
}

// Reset forgets everything recorded
func (n *MockNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}
