package session

import "github.com/mcoot/rpsgame/internal/model"

// Notifier delivers outbound events to a single connection.
// SendTo must not block; delivery is best effort.
type Notifier interface {
	SendTo(id model.ConnectionID, event model.EventName, payload any)
}
