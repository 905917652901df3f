package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "social-chat/errors"
)

func Test_EncodeFrame_Wraps_Payload(t *testing.T) {
	req := require.New(t)

	raw, err := encodeFrame(EventError, ErrorPayload{Event: EventNewMessage, Reason: "not_found"})
	req.NoError(err)

	var frame Frame
	req.NoError(json.Unmarshal(raw, &frame))
	req.Equal(EventError, frame.Event)

	var payload ErrorPayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal(EventNewMessage, payload.Event)
	req.Equal("not_found", payload.Reason)
}

func Test_ReasonFor_Maps_Domain_Errors(t *testing.T) {
	req := require.New(t)

	req.Equal("not_found", reasonFor(apperrors.ErrConversationNotFound))
	req.Equal("not_member", reasonFor(apperrors.ErrNotMember))
	req.Equal("empty_content", reasonFor(apperrors.ErrEmptyContent))
	req.Equal("content_too_long", reasonFor(apperrors.ErrContentTooLong))
	req.Equal("invalid_participants", reasonFor(apperrors.ErrNoParticipants))

	// Wrapped errors still map to their sentinel
	req.Equal("not_found", reasonFor(fmt.Errorf("lookup: %w", apperrors.ErrConversationNotFound)))

	// Anything else stays opaque
	req.Equal("internal", reasonFor(fmt.Errorf("disk on fire")))
}
