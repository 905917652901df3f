package event

import (
	"social-chat/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the gateway fans out to live participant sessions.
type DomainEvent interface {
	// Recipients lists the user identities that should receive the event.
	Recipients() []string
}

// ConversationCreated is emitted once per participant after a successful create.
type ConversationCreated struct {
	Conversation domain.Conversation
}

func (e ConversationCreated) Recipients() []string {
	return e.Conversation.Participants
}

// MessageAppended is emitted after a successful append, sender included so
// that the author's other live sessions stay in sync.
type MessageAppended struct {
	ConversationID uuid.UUID
	Participants   []string
	Message        domain.Message
}

func (e MessageAppended) Recipients() []string {
	return e.Participants
}
