package storage

import (
	"context"

	"github.com/mcoot/rpsgame/internal/model"
)

// WaitingPool is a FIFO of connections waiting for an opponent.
// Implementations must be safe for concurrent use.
type WaitingPool interface {
	// Enqueue appends to the tail; ErrAlreadyWaiting if the connection is queued
	Enqueue(ctx context.Context, entry model.WaitingEntry) error
	// DequeueOldest pops the head; ErrPoolEmpty if nobody is waiting
	DequeueOldest(ctx context.Context) (*model.WaitingEntry, error)
	// RemoveWaiting drops the connection if queued and reports whether it was
	RemoveWaiting(ctx context.Context, id model.ConnectionID) (bool, error)
	IsWaiting(ctx context.Context, id model.ConnectionID) (bool, error)
	WaitingCount(ctx context.Context) (int, error)
}

// MatchRegistry maps each participating connection to its active match.
// A match is registered under both participants or neither.
type MatchRegistry interface {
	// CreateMatch registers the match under both participants;
	// ErrAlreadyInMatch if either already has one
	CreateMatch(ctx context.Context, match *model.Match) error
	// GetMatch returns a copy of the match for a connection; ErrMatchNotFound if none
	GetMatch(ctx context.Context, id model.ConnectionID) (*model.Match, error)
	// SaveMatch stores updated choices; ErrMatchNotFound if the match was removed
	SaveMatch(ctx context.Context, match *model.Match) error
	// RemoveMatch removes both entries; removing an absent match is not an error
	RemoveMatch(ctx context.Context, match *model.Match) error
	MatchCount(ctx context.Context) (int, error)
}

// Storage defines the interface for shared session state
type Storage interface {
	WaitingPool
	MatchRegistry

	Close() error
}
