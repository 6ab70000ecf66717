package session

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mcoot/rpsgame/internal/model"
)

// lockStripes bounds memory for match locks regardless of how many matches run
const lockStripes = 64

// matchLocks serialises transitions of the same match.
// Distinct matches may share a stripe; that only costs some contention.
type matchLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *matchLocks) forMatch(id model.MatchID) *sync.Mutex {
	return &l.stripes[xxhash.Sum64String(string(id))%lockStripes]
}
