// Package ws implements the realtime gateway: websocket connection lifecycle,
// handshake authentication and the JSON event protocol over it.
package ws

import (
	"encoding/json"
	goerrors "errors"

	"github.com/google/uuid"

	"social-chat/domain"
	apperrors "social-chat/errors"
)

// Client-emitted events.
const (
	EventCreateConversation = "conversation"
	EventNewMessage         = "new_message"
)

// Server-emitted events.
const (
	EventConversationCreated = "new_conversation"
	EventMessage             = "message"
	EventError               = "error"
)

// Frame is the envelope of every message on the wire, both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessagePayload is the data of a server "message" event.
type MessagePayload struct {
	ConversationID uuid.UUID      `json:"conversationId"`
	Message        domain.Message `json:"message"`
}

// ErrorPayload names the client event that failed and a stable reason code,
// so clients can retry deterministically instead of guessing from silence.
type ErrorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// reasonFor maps domain errors to wire reason codes. Anything unrecognized is
// reported as internal rather than leaking error text to the client.
func reasonFor(err error) string {
	switch {
	case goerrors.Is(err, apperrors.ErrConversationNotFound):
		return "not_found"
	case goerrors.Is(err, apperrors.ErrNotMember):
		return "not_member"
	case goerrors.Is(err, apperrors.ErrEmptyContent):
		return "empty_content"
	case goerrors.Is(err, apperrors.ErrContentTooLong):
		return "content_too_long"
	case goerrors.Is(err, apperrors.ErrNoParticipants):
		return "invalid_participants"
	case goerrors.Is(err, apperrors.ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "internal"
	}
}
