package model

import "time"

// ConnectionID is the opaque identity the transport assigns to a connected client
type ConnectionID string

// Player is a participant in a match
type Player struct {
	ID          ConnectionID
	DisplayName string
	Choice      *Choice // nil until the player submits
}

// HasChosen returns true once the player has submitted a choice
func (p *Player) HasChosen() bool {
	return p.Choice != nil
}

// WaitingEntry is a connection queued for an opponent
type WaitingEntry struct {
	ID          ConnectionID
	DisplayName string
	EnqueuedAt  time.Time
}

// Player converts the entry into a match participant with no choice yet
func (e WaitingEntry) Player() Player {
	return Player{ID: e.ID, DisplayName: e.DisplayName}
}
