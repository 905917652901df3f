package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	apperrors "social-chat/errors"
)

// Conversation is a persisted thread: an ordered participant list plus an
// append-only message sequence. LastMessageAt is derived, never set directly.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	Participants  []string  `json:"participants"`
	Messages      []Message `json:"messages"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewConversation builds an empty conversation. Participants are de-duplicated
// while preserving order; fewer than two distinct participants is rejected.
func NewConversation(participants []string, now time.Time) (Conversation, error) {
	distinct := dedupe(participants)
	if len(distinct) < 2 {
		return Conversation{}, apperrors.ErrNoParticipants
	}
	return Conversation{
		ID:            uuid.New(),
		Participants:  distinct,
		Messages:      nil,
		LastMessageAt: now,
		CreatedAt:     now,
	}, nil
}

// HasParticipant reports whether userID is a member of the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// Append adds a message to the end of the sequence and recomputes
// LastMessageAt from the message's SentAt. The author must be a participant.
func (c *Conversation) Append(m Message) error {
	if !c.HasParticipant(m.Author) {
		return apperrors.ErrNotMember
	}
	c.Messages = append(c.Messages, m)
	c.LastMessageAt = m.SentAt
	return nil
}

// LastSentAt returns the SentAt of the newest message, or the zero time for
// an empty conversation.
func (c Conversation) LastSentAt() time.Time {
	if len(c.Messages) == 0 {
		return time.Time{}
	}
	return c.Messages[len(c.Messages)-1].SentAt
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
