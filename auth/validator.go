package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateConversationRequest is the payload of the "conversation" event and its
// HTTP equivalent. The creator is implied by the authenticated connection.
type CreateConversationRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
}

// PostMessageRequest is the payload of the "new_message" event. Any author or
// user id present in the raw payload is ignored on purpose.
type PostMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required,uuid4"`
	Message        string `json:"message" validate:"required,max=1000"`
	PictureURL     string `json:"pictureUrl" validate:"omitempty,url"`
	VideoURL       string `json:"videoUrl" validate:"omitempty,url"`
}

func ValidateCreateConversation(req CreateConversationRequest) error {
	return validate.Struct(req)
}

func ValidatePostMessage(req PostMessageRequest) error {
	return validate.Struct(req)
}
