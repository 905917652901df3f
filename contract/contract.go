//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"social-chat/domain"
	"social-chat/domain/event"

	"github.com/google/uuid"
)

// EventSink is one live delivery target, typically a websocket session.
// Consume must not block: a slow consumer drops the event, it never stalls
// fan-out to the other sessions.
type EventSink interface {
	Consume(e event.DomainEvent) error
}

// IRegistry tracks which sinks are live for a user identity. A user may hold
// several simultaneous sessions; all of them receive fan-out.
type IRegistry interface {
	Register(userID string, sink EventSink)
	Unregister(userID string, sink EventSink)
	Resolve(userID string) []EventSink
	Connected(userID string) bool
}

// IConversationRepository is the single writer-of-record for conversations.
// AppendMessage serializes concurrent appends per conversation id and assigns
// the message timestamp itself.
type IConversationRepository interface {
	Create(ctx context.Context, participants []string) (domain.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	AppendMessage(ctx context.Context, id uuid.UUID, author string, draft domain.MessageDraft) (domain.Conversation, domain.Message, error)
}

// IChatService is the protocol-facing surface shared by the websocket gateway
// and the REST handlers.
type IChatService interface {
	CreateConversation(ctx context.Context, cmd domain.CreateConversationCommand) (domain.Conversation, error)
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error)
	Conversation(ctx context.Context, userID string, id uuid.UUID) (domain.Conversation, error)
	ConversationsFor(ctx context.Context, userID string) ([]domain.Conversation, error)
}

// Notification is the payload shape the external push endpoint accepts.
type Notification struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	UserID string `json:"userId"`
}

// INotifier delivers a best-effort push alert. Callers treat every error as
// log-only; a failed dispatch never fails the message send.
type INotifier interface {
	Send(ctx context.Context, n Notification) error
}

// TokenVerifier resolves a bearer credential to a trusted user identity.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserDirectory resolves a user id to a display name, used to build
// notification titles. Profile storage itself is an external collaborator.
type UserDirectory interface {
	DisplayName(userID string) string
}
