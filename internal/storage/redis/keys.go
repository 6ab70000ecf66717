package redis

import (
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
)

// Key prefix for all session data
const keyPrefix = "rpsgame"

// poolListKey returns the Redis key for the LIST of waiting connection IDs, oldest first
func poolListKey() string {
	return fmt.Sprintf("%s:pool", keyPrefix)
}

// poolEntriesKey returns the Redis key for the HASH of connection ID -> waiting entry
func poolEntriesKey() string {
	return fmt.Sprintf("%s:pool:entries", keyPrefix)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// connMatchKey returns the Redis key for the connection -> match ID index
func connMatchKey(id model.ConnectionID) string {
	return fmt.Sprintf("%s:idx:conn_match:%s", keyPrefix, id)
}

// matchesIndexKey returns the Redis key for the SET of active match IDs
func matchesIndexKey() string {
	return fmt.Sprintf("%s:idx:matches", keyPrefix)
}

// keyPattern matches every key this storage owns
func keyPattern() string {
	return fmt.Sprintf("%s:*", keyPrefix)
}
