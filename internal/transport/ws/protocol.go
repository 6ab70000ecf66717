package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
)

// EventHandler receives the inbound events of a connection
type EventHandler interface {
	JoinQueue(ctx context.Context, id model.ConnectionID, name string) error
	SubmitChoice(ctx context.Context, id model.ConnectionID, choice string) error
	Disconnect(ctx context.Context, id model.ConnectionID) error
}

// Envelope is the frame exchanged in both directions
type Envelope struct {
	Event   model.EventName `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Event   model.EventName `json:"event"`
	Payload any             `json:"payload,omitempty"`
}

// Encode builds the wire frame for an outbound event.
// A nil payload is omitted.
func Encode(event model.EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(outbound{Event: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return data, nil
}

// protocolError is reported back to the sender as an Error event
type protocolError struct {
	code    string
	message string
}

func (e *protocolError) Error() string {
	return e.code + ": " + e.message
}

// dispatch decodes one inbound frame and routes it to the handler
func dispatch(ctx context.Context, handler EventHandler, id model.ConnectionID, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return &protocolError{code: model.CodeInvalidMessage, message: "frame is not a valid envelope"}
	}

	switch env.Event {
	case model.EventJoinQueue:
		var p model.JoinQueuePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return handler.JoinQueue(ctx, id, p.Name)

	case model.EventSubmitChoice, model.EventMakeChoice:
		var p model.SubmitChoicePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return handler.SubmitChoice(ctx, id, p.Choice)

	case "":
		return &protocolError{code: model.CodeInvalidMessage, message: "event is required"}

	default:
		return &protocolError{code: model.CodeUnknownEvent, message: fmt.Sprintf("unknown event %q", env.Event)}
	}
}

// decodePayload accepts either the payload object or a bare string,
// which is taken as the single field of the payload
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch p := dst.(type) {
		case *model.JoinQueuePayload:
			p.Name = s
		case *model.SubmitChoicePayload:
			p.Choice = s
		}
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &protocolError{code: model.CodeInvalidMessage, message: "payload does not match event"}
	}
	return nil
}

func asProtocolError(err error) (*protocolError, bool) {
	var pe *protocolError
	ok := errors.As(err, &pe)
	return pe, ok
}
