//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-chat/domain"
	apperrors "social-chat/errors"
)

const conversationPrefix = "conv:"

// ConversationRepository persists conversations in BadgerDB, one record per
// conversation under "conv:{uuid}". The whole aggregate (participants plus the
// embedded message sequence) lives in a single value, so an append is a
// read-modify-write inside one transaction: Badger's serializable transactions
// reject the loser of two concurrent commits with ErrConflict, which we retry.
// That gives per-conversation append serialization without a global lock.
type ConversationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	clock clock.Clock
}

func NewConversationRepository(db *badger.DB, log *slog.Logger, clk clock.Clock) ConversationRepository {
	return ConversationRepository{db: db, log: log, clock: clk}
}

func conversationKey(id uuid.UUID) []byte {
	return []byte(conversationPrefix + id.String())
}

// Create allocates a new conversation with an empty message sequence.
// Participants are de-duplicated; fewer than two distinct ids is rejected.
func (r ConversationRepository) Create(ctx context.Context, participants []string) (domain.Conversation, error) {
	conversation, err := domain.NewConversation(participants, r.clock.Now().UTC())
	if err != nil {
		return domain.Conversation{}, err
	}
	bytes, err := json.Marshal(conversation)
	if err != nil {
		return domain.Conversation{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(conversationKey(conversation.ID), bytes)
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("storing conversation: %w", err)
	}
	return conversation, nil
}

func (r ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := readConversation(txn, id)
		if err != nil {
			return err
		}
		conversation = found
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

// FindByParticipant scans the conversation prefix and keeps the threads the
// user belongs to, newest activity first.
func (r ConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(conversationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var conversation domain.Conversation
				if err := json.Unmarshal(value, &conversation); err != nil {
					return err
				}
				if conversation.HasParticipant(userID) {
					conversations = append(conversations, conversation)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations, nil
}

// AppendMessage appends a message to the end of the sequence and recomputes
// lastMessageAt. SentAt is assigned here from the repository clock, never taken
// from the draft; when the clock reads at or before the previous message's
// SentAt (or the creation time for the first message), the stored value is
// bumped just past it to keep the sequence strictly increasing within the
// conversation.
func (r ConversationRepository) AppendMessage(ctx context.Context, id uuid.UUID, author string, draft domain.MessageDraft) (domain.Conversation, domain.Message, error) {
	if err := draft.Validate(); err != nil {
		return domain.Conversation{}, domain.Message{}, err
	}

	var (
		conversation domain.Conversation
		message      domain.Message
	)
	for {
		if err := ctx.Err(); err != nil {
			return domain.Conversation{}, domain.Message{}, err
		}
		err := r.db.Update(func(txn *badger.Txn) error {
			found, err := readConversation(txn, id)
			if err != nil {
				return err
			}

			sentAt := r.clock.Now().UTC()
			last := found.LastSentAt()
			if last.IsZero() {
				last = found.CreatedAt
			}
			if !last.Before(sentAt) {
				sentAt = last.Add(1)
			}
			message = domain.Message{
				Author:     author,
				Content:    draft.Content,
				PictureURL: draft.PictureURL,
				VideoURL:   draft.VideoURL,
				SentAt:     sentAt,
			}
			if err := found.Append(message); err != nil {
				return err
			}

			bytes, err := json.Marshal(found)
			if err != nil {
				return err
			}
			if err := txn.Set(conversationKey(id), bytes); err != nil {
				return err
			}
			conversation = found
			return nil
		})
		if goerrors.Is(err, badger.ErrConflict) {
			r.log.Debug("Concurrent append detected, retrying", "conversation_id", id)
			continue
		}
		if err != nil {
			return domain.Conversation{}, domain.Message{}, err
		}
		return conversation, message, nil
	}
}

func readConversation(txn *badger.Txn, id uuid.UUID) (domain.Conversation, error) {
	item, err := txn.Get(conversationKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, fmt.Errorf("%w: %s", apperrors.ErrConversationNotFound, id)
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	var conversation domain.Conversation
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &conversation)
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}
