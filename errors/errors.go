package errors

import "fmt"

var (
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrNotMember            = fmt.Errorf("author is not a participant of the conversation")
	ErrNoParticipants       = fmt.Errorf("a conversation needs at least two distinct participants")
	ErrEmptyContent         = fmt.Errorf("message content is required")
	ErrContentTooLong       = fmt.Errorf("message content exceeds the maximum length")
	ErrInvalidToken         = fmt.Errorf("invalid or expired token")
	ErrMissingToken         = fmt.Errorf("authorization token is missing")
	ErrInvalidPayload       = fmt.Errorf("invalid event payload")
	ErrNotifierRejected     = fmt.Errorf("notification endpoint rejected the payload")
)
