package domain

import "github.com/google/uuid"

// CreateConversationCommand opens a new thread. Creator is the authenticated
// identity of the caller and is always part of the final participant list.
type CreateConversationCommand struct {
	Creator      string
	Participants []string
}

// PostMessageCommand appends a message to an existing thread. Author comes
// from the authenticated connection, never from the client payload.
type PostMessageCommand struct {
	ConversationID uuid.UUID
	Author         string
	Content        string
	PictureURL     string
	VideoURL       string
}

func (cmd PostMessageCommand) Draft() MessageDraft {
	return MessageDraft{
		Content:    cmd.Content,
		PictureURL: cmd.PictureURL,
		VideoURL:   cmd.VideoURL,
	}
}
