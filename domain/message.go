// Package domain contains core concepts of the messaging system.
// This file defines the Message value type and its validation rules.
// Messages are immutable once appended and always embedded in a Conversation.
package domain

import (
	"time"
	"unicode/utf8"

	apperrors "social-chat/errors"
)

// MaxContentLength bounds the stored content of a single message, in runes.
const MaxContentLength = 1000

// Message is an immutable chat event embedded in a Conversation.
// SentAt is always assigned by the store at append time, never by the client.
type Message struct {
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	PictureURL string    `json:"pictureUrl"`
	VideoURL   string    `json:"videoUrl"`
	IsRead     bool      `json:"isRead"`
	SentAt     time.Time `json:"sentAt"`
}

// MessageDraft carries the client-supplied parts of a message before the
// store stamps the author-checked, timestamped Message.
type MessageDraft struct {
	Content    string
	PictureURL string
	VideoURL   string
}

func (d MessageDraft) Validate() error {
	if d.Content == "" {
		return apperrors.ErrEmptyContent
	}
	if utf8.RuneCountInString(d.Content) > MaxContentLength {
		return apperrors.ErrContentTooLong
	}
	return nil
}
