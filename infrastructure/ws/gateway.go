package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"social-chat/auth"
	"social-chat/contract"
	"social-chat/domain"
)

// Gateway accepts websocket connections, authenticates them before the
// upgrade completes (fail closed) and runs the event protocol against the
// chat service. Presence registration spans exactly the lifetime of the
// connection's read loop.
type Gateway struct {
	log        *slog.Logger
	verifier   contract.TokenVerifier
	registry   contract.IRegistry
	service    contract.IChatService
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewGateway(
	log *slog.Logger,
	verifier contract.TokenVerifier,
	registry contract.IRegistry,
	service contract.IChatService,
	handshakeTimeout time.Duration,
	sendBuffer int,
) *Gateway {
	return &Gateway{
		log:      log,
		verifier: verifier,
		registry: registry,
		service:  service,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			// Cross-origin policy is enforced by the HTTP layer's CORS
			// middleware; the gateway accepts any origin that reached it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
	}
}

// Handle is the /ws endpoint. The bearer credential comes from the
// Authorization header or, for browser clients that cannot set headers on a
// websocket, from the token query parameter.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	userID, err := g.verifier.Verify(token)
	if err != nil {
		g.log.Warn("Rejecting websocket handshake", "error", err)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		g.log.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	session := NewSession(userID, conn, g.log, g.sendBuffer)
	g.registry.Register(userID, session)
	g.log.Info("Session connected", "user_id", userID)

	go session.writePump()
	g.readLoop(session)

	g.registry.Unregister(userID, session)
	session.Close()
	g.log.Info("Session disconnected", "user_id", userID)
}

func (g *Gateway) readLoop(session *Session) {
	conn := session.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn("Session read error", "user_id", session.UserID, "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			g.log.Warn("Malformed frame", "user_id", session.UserID, "error", err)
			session.SendError(EventError, "invalid_payload")
			continue
		}

		switch frame.Event {
		case EventCreateConversation:
			g.handleCreateConversation(session, frame.Data)
		case EventNewMessage:
			g.handleNewMessage(session, frame.Data)
		default:
			session.SendError(frame.Event, "unknown_event")
		}
	}
}

func (g *Gateway) handleCreateConversation(session *Session, data json.RawMessage) {
	var req auth.CreateConversationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		session.SendError(EventCreateConversation, "invalid_payload")
		return
	}
	if err := auth.ValidateCreateConversation(req); err != nil {
		session.SendError(EventCreateConversation, "invalid_payload")
		return
	}

	_, err := g.service.CreateConversation(context.Background(), domain.CreateConversationCommand{
		Creator:      session.UserID,
		Participants: req.Participants,
	})
	if err != nil {
		g.log.Warn("Conversation create failed", "user_id", session.UserID, "error", err)
		session.SendError(EventCreateConversation, reasonFor(err))
	}
}

func (g *Gateway) handleNewMessage(session *Session, data json.RawMessage) {
	var req auth.PostMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		session.SendError(EventNewMessage, "invalid_payload")
		return
	}
	if err := auth.ValidatePostMessage(req); err != nil {
		session.SendError(EventNewMessage, "invalid_payload")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		session.SendError(EventNewMessage, "invalid_payload")
		return
	}

	_, err = g.service.PostMessage(context.Background(), domain.PostMessageCommand{
		ConversationID: conversationID,
		Author:         session.UserID,
		Content:        req.Message,
		PictureURL:     req.PictureURL,
		VideoURL:       req.VideoURL,
	})
	if err != nil {
		g.log.Warn("Message send failed",
			"user_id", session.UserID,
			"conversation_id", conversationID,
			"error", err)
		session.SendError(EventNewMessage, reasonFor(err))
	}
}
