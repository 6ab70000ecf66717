package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	queue   []model.WaitingEntry
	waiting map[model.ConnectionID]struct{}
	matches map[model.MatchID]*model.Match
	byConn  map[model.ConnectionID]model.MatchID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		waiting: make(map[model.ConnectionID]struct{}),
		matches: make(map[model.MatchID]*model.Match),
		byConn:  make(map[model.ConnectionID]model.MatchID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Waiting pool operations

func (s *Storage) Enqueue(ctx context.Context, entry model.WaitingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waiting[entry.ID]; ok {
		return model.ErrAlreadyWaiting
	}
	s.waiting[entry.ID] = struct{}{}
	s.queue = append(s.queue, entry)
	return nil
}

func (s *Storage) DequeueOldest(ctx context.Context) (*model.WaitingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, model.ErrPoolEmpty
	}
	head := s.queue[0]
	s.queue[0] = model.WaitingEntry{}
	s.queue = s.queue[1:]
	delete(s.waiting, head.ID)
	return &head, nil
}

func (s *Storage) RemoveWaiting(ctx context.Context, id model.ConnectionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waiting[id]; !ok {
		return false, nil
	}
	delete(s.waiting, id)
	s.queue = slices.DeleteFunc(s.queue, func(e model.WaitingEntry) bool {
		return e.ID == id
	})
	return true, nil
}

func (s *Storage) IsWaiting(ctx context.Context, id model.ConnectionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.waiting[id]
	return ok, nil
}

func (s *Storage) WaitingCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queue), nil
}

// Match registry operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range match.Participants() {
		if _, ok := s.byConn[id]; ok {
			return model.ErrAlreadyInMatch
		}
	}
	s.matches[match.ID] = copyMatch(match)
	for _, id := range match.Participants() {
		s.byConn[id] = match.ID
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.ConnectionID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matchID, ok := s.byConn[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return copyMatch(s.matches[matchID]), nil
}

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[match.ID]; !ok {
		return model.ErrMatchNotFound
	}
	s.matches[match.ID] = copyMatch(match)
	return nil
}

func (s *Storage) RemoveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, match.ID)
	for _, id := range match.Participants() {
		if s.byConn[id] == match.ID {
			delete(s.byConn, id)
		}
	}
	return nil
}

func (s *Storage) MatchCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}

// copyMatch detaches a match from the stored instance so callers
// must go through SaveMatch to change it
func copyMatch(m *model.Match) *model.Match {
	c := *m
	c.PlayerA.Choice = copyChoice(m.PlayerA.Choice)
	c.PlayerB.Choice = copyChoice(m.PlayerB.Choice)
	return &c
}

func copyChoice(c *model.Choice) *model.Choice {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
