package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/model"
)

// MockIDs is a mock implementation of ids.Generator for testing.
// Queued values are returned first, then sequential "conn-N" / "match-N" IDs.
type MockIDs struct {
	mu sync.Mutex

	connQueue  []model.ConnectionID
	matchQueue []model.MatchID
	connSeq    int
	matchSeq   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// ConnectionID returns the next queued connection ID or a sequential one
func (m *MockIDs) ConnectionID() model.ConnectionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.connQueue) > 0 {
		id := m.connQueue[0]
		m.connQueue = m.connQueue[1:]
		return id
	}
	m.connSeq++
	return model.ConnectionID(fmt.Sprintf("conn-%d", m.connSeq))
}

// MatchID returns the next queued match ID or a sequential one
func (m *MockIDs) MatchID() model.MatchID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.matchQueue) > 0 {
		id := m.matchQueue[0]
		m.matchQueue = m.matchQueue[1:]
		return id
	}
	m.matchSeq++
	return model.MatchID(fmt.Sprintf("match-%d", m.matchSeq))
}

// QueueConnectionID adds values to the connection ID queue
func (m *MockIDs) QueueConnectionID(values ...model.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connQueue = append(m.connQueue, values...)
}

// QueueMatchID adds values to the match ID queue
func (m *MockIDs) QueueMatchID(values ...model.MatchID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchQueue = append(m.matchQueue, values...)
}
