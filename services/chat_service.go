package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"social-chat/contract"
	"social-chat/domain"
	"social-chat/domain/event"
	apperrors "social-chat/errors"
	"social-chat/moderation"
)

// ChatService implements the message protocol shared by the websocket gateway
// and the REST handlers: validate, persist, fan out to live sessions, then
// kick off best-effort push notifications.
type ChatService struct {
	log           *slog.Logger
	repository    contract.IConversationRepository
	registry      contract.IRegistry
	notifier      contract.INotifier
	directory     contract.UserDirectory
	censor        moderation.Censor
	notifyTimeout time.Duration
}

func NewChatService(
	log *slog.Logger,
	repository contract.IConversationRepository,
	registry contract.IRegistry,
	notifier contract.INotifier,
	directory contract.UserDirectory,
	censor moderation.Censor,
	notifyTimeout time.Duration,
) *ChatService {
	return &ChatService{
		log:           log,
		repository:    repository,
		registry:      registry,
		notifier:      notifier,
		directory:     directory,
		censor:        censor,
		notifyTimeout: notifyTimeout,
	}
}

// CreateConversation persists a new empty thread and announces it to every
// participant with a live session. Participants without one receive nothing;
// they discover the thread on their next fetch.
func (s *ChatService) CreateConversation(ctx context.Context, cmd domain.CreateConversationCommand) (domain.Conversation, error) {
	participants := append([]string{cmd.Creator}, cmd.Participants...)
	conversation, err := s.repository.Create(ctx, participants)
	if err != nil {
		return domain.Conversation{}, err
	}

	s.fanout(event.ConversationCreated{Conversation: conversation})
	return conversation, nil
}

// PostMessage appends a message on behalf of the authenticated author and
// fans it out to every live session of every participant, sender included so
// the author's other devices stay in sync. Persistence failure aborts before
// any fan-out or notification. Notification dispatch is detached: it runs on
// its own context and its failure is only ever logged.
func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	draft := cmd.Draft()
	draft.Content = s.censor.Apply(draft.Content)

	conversation, message, err := s.repository.AppendMessage(ctx, cmd.ConversationID, cmd.Author, draft)
	if err != nil {
		return domain.Message{}, err
	}

	s.fanout(event.MessageAppended{
		ConversationID: conversation.ID,
		Participants:   conversation.Participants,
		Message:        message,
	})

	recipients := lo.Filter(conversation.Participants, func(participant string, _ int) bool {
		return participant != cmd.Author
	})
	for _, participant := range recipients {
		go s.dispatchNotification(conversation.ID, cmd.Author, participant)
	}
	return message, nil
}

// Conversation returns one thread; callers other than participants get
// ErrNotMember rather than a peek at the content.
func (s *ChatService) Conversation(ctx context.Context, userID string, id uuid.UUID) (domain.Conversation, error) {
	conversation, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(userID) {
		return domain.Conversation{}, apperrors.ErrNotMember
	}
	return conversation, nil
}

func (s *ChatService) ConversationsFor(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.repository.FindByParticipant(ctx, userID)
}

// fanout delivers one event to every live session of every recipient. Sinks
// never block; a failed Consume is logged and the loop moves on, so one dead
// session cannot starve the others.
func (s *ChatService) fanout(e event.DomainEvent) {
	for _, userID := range e.Recipients() {
		for _, sink := range s.registry.Resolve(userID) {
			if err := sink.Consume(e); err != nil {
				s.log.Warn("Dropping event for session",
					"user_id", userID,
					"error", err)
			}
		}
	}
}

func (s *ChatService) dispatchNotification(conversationID uuid.UUID, authorID, recipientID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	notification := contract.Notification{
		Title:  "New message",
		Body:   fmt.Sprintf("%s sent you a message", s.directory.DisplayName(authorID)),
		URL:    fmt.Sprintf("/conversations/%s", conversationID),
		UserID: recipientID,
	}
	if err := s.notifier.Send(ctx, notification); err != nil {
		s.log.Warn("Notification dispatch failed",
			"user_id", recipientID,
			"conversation_id", conversationID,
			"error", err)
	}
}
