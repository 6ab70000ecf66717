package model

// EventName identifies a message on the realtime connection
type EventName string

const (
	// Inbound events
	EventJoinQueue    EventName = "JoinQueue"
	EventSubmitChoice EventName = "SubmitChoice"
	EventMakeChoice   EventName = "MakeChoice" // alias of SubmitChoice

	// Outbound events
	EventOpponentFound EventName = "OpponentFound"
	EventGameResult    EventName = "GameResult"
	EventOpponentLeft  EventName = "OpponentLeft"
	EventError         EventName = "Error"
)

// Reasons carried by OpponentLeft
const (
	LeftReasonDisconnected = "opponent_disconnected"
)

// Error codes carried by Error events
const (
	CodeInvalidChoice  = "INVALID_CHOICE"
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeUnknownEvent   = "UNKNOWN_EVENT"
	CodeInternalError  = "INTERNAL_ERROR"
)

// JoinQueuePayload is sent by a client asking for an opponent
type JoinQueuePayload struct {
	Name string `json:"name"`
}

// SubmitChoicePayload is sent by a client throwing its choice
type SubmitChoicePayload struct {
	Choice string `json:"choice"`
}

// GameResultPayload is delivered to each participant from their own perspective
type GameResultPayload struct {
	PlayerChoice   Choice  `json:"playerChoice"`
	OpponentChoice Choice  `json:"opponentChoice"`
	Result         Outcome `json:"result"`
}

// OpponentLeftPayload tells the surviving player their match ended abnormally
type OpponentLeftPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload reports a rejected message back to its sender
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GameResultPayloadFrom builds the wire payload for a resolved match result
func GameResultPayloadFrom(r MatchResult) GameResultPayload {
	return GameResultPayload{
		PlayerChoice:   r.PlayerChoice,
		OpponentChoice: r.OpponentChoice,
		Result:         r.Outcome,
	}
}
