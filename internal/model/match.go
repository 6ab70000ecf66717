package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// Resolver decides the outcome of one choice against another
type Resolver interface {
	Resolve(choice, opponent Choice) Outcome
}

// Match is a single two-player round.
// Participants are fixed at creation; only their choices change.
type Match struct {
	ID        MatchID
	PlayerA   Player
	PlayerB   Player
	CreatedAt time.Time
}

// MatchResult is one participant's view of a resolved match
type MatchResult struct {
	PlayerID       ConnectionID
	PlayerChoice   Choice
	OpponentChoice Choice
	Outcome        Outcome
}

// NewMatch pairs two players who have not chosen yet
func NewMatch(id MatchID, a, b Player, now time.Time) *Match {
	a.Choice = nil
	b.Choice = nil
	return &Match{
		ID:        id,
		PlayerA:   a,
		PlayerB:   b,
		CreatedAt: now,
	}
}

// Participants returns both connection IDs, A first
func (m *Match) Participants() [2]ConnectionID {
	return [2]ConnectionID{m.PlayerA.ID, m.PlayerB.ID}
}

// GetPlayer returns the participant with the given ID, or nil if not found
func (m *Match) GetPlayer(id ConnectionID) *Player {
	switch id {
	case m.PlayerA.ID:
		return &m.PlayerA
	case m.PlayerB.ID:
		return &m.PlayerB
	}
	return nil
}

// Opponent returns the other participant, or nil if id is not in the match
func (m *Match) Opponent(id ConnectionID) *Player {
	switch id {
	case m.PlayerA.ID:
		return &m.PlayerB
	case m.PlayerB.ID:
		return &m.PlayerA
	}
	return nil
}

// RecordChoice sets a participant's choice. A later call overwrites an earlier one.
func (m *Match) RecordChoice(id ConnectionID, choice Choice) error {
	if !choice.Valid() {
		return ErrInvalidChoice
	}
	p := m.GetPlayer(id)
	if p == nil {
		return ErrNotInMatch
	}
	p.Choice = &choice
	return nil
}

// IsComplete returns true once both players have chosen
func (m *Match) IsComplete() bool {
	return m.PlayerA.HasChosen() && m.PlayerB.HasChosen()
}

// Results resolves a complete match into one result per participant, A first.
// The resolver is consulted once; B's outcome is always the inverse of A's.
func (m *Match) Results(r Resolver) ([2]MatchResult, error) {
	if !m.IsComplete() {
		return [2]MatchResult{}, ErrMatchIncomplete
	}
	a, b := *m.PlayerA.Choice, *m.PlayerB.Choice
	outcome := r.Resolve(a, b)
	return [2]MatchResult{
		{PlayerID: m.PlayerA.ID, PlayerChoice: a, OpponentChoice: b, Outcome: outcome},
		{PlayerID: m.PlayerB.ID, PlayerChoice: b, OpponentChoice: a, Outcome: outcome.Inverse()},
	}, nil
}
