package response

import (
	"encoding/json"
	"net/http"
)

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Stats reports matchmaking load
type Stats struct {
	Waiting       int `json:"waiting"`
	ActiveMatches int `json:"active_matches"`
	Connections   int `json:"connections"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
