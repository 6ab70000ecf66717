package ids

import (
	"github.com/google/uuid"

	"github.com/mcoot/rpsgame/internal/model"
)

// Generator issues identifiers that can be mocked for testing
type Generator interface {
	// ConnectionID returns a new identity for a connected client
	ConnectionID() model.ConnectionID

	// MatchID returns a new identity for a match
	MatchID() model.MatchID
}

// UUIDGenerator implements Generator using random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// ConnectionID returns a random UUID connection ID
func (g *UUIDGenerator) ConnectionID() model.ConnectionID {
	return model.ConnectionID(uuid.NewString())
}

// MatchID returns a random UUID match ID
func (g *UUIDGenerator) MatchID() model.MatchID {
	return model.MatchID(uuid.NewString())
}
