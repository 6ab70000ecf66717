package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case StatsResult:
		o.printStats(v)
	case PlayResult:
		o.printPlayResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatsResult response type
type StatsResult struct {
	Waiting       int `json:"waiting"`
	ActiveMatches int `json:"active_matches"`
	Connections   int `json:"connections"`
}

// PlayResult is the outcome of one round as seen by this player
type PlayResult struct {
	PlayerChoice   string `json:"playerChoice,omitempty"`
	OpponentChoice string `json:"opponentChoice,omitempty"`
	Result         string `json:"result,omitempty"`
	OpponentLeft   bool   `json:"opponentLeft,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (o *Output) printStats(s StatsResult) {
	_, _ = fmt.Fprintf(o.w, "Waiting: %d\n", s.Waiting)
	_, _ = fmt.Fprintf(o.w, "Active matches: %d\n", s.ActiveMatches)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", s.Connections)
}

func (o *Output) printPlayResult(p PlayResult) {
	if p.OpponentLeft {
		_, _ = fmt.Fprintf(o.w, "Opponent left before the round finished (%s)\n", p.Reason)
		return
	}
	_, _ = fmt.Fprintf(o.w, "You: %s\n", p.PlayerChoice)
	_, _ = fmt.Fprintf(o.w, "Opponent: %s\n", p.OpponentChoice)
	_, _ = fmt.Fprintf(o.w, "Result: %s\n", strings.ToUpper(p.Result))
}
