package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-chat/domain/event"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10

	// Inbound frames carry at most a short event name plus a message payload
	// capped at domain.MaxContentLength runes, so 8KB leaves ample headroom.
	maxFrameSize = 8 << 10
)

// Session is one authenticated websocket connection. It implements
// contract.EventSink: the service layer hands it domain events and the write
// pump serializes them onto the wire. Outbound delivery is buffered and
// non-blocking; a session that cannot keep up drops events instead of
// stalling fan-out to everyone else.
type Session struct {
	UserID string

	conn      *websocket.Conn
	send      chan []byte
	log       *slog.Logger
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewSession(userID string, conn *websocket.Conn, log *slog.Logger, sendBuffer int) *Session {
	return &Session{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log,
	}
}

// Consume encodes a domain event into its wire frame and queues it.
func (s *Session) Consume(e event.DomainEvent) error {
	var (
		frame []byte
		err   error
	)
	switch evt := e.(type) {
	case event.ConversationCreated:
		frame, err = encodeFrame(EventConversationCreated, evt.Conversation)
	case event.MessageAppended:
		frame, err = encodeFrame(EventMessage, MessagePayload{
			ConversationID: evt.ConversationID,
			Message:        evt.Message,
		})
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return s.enqueue(frame)
}

// SendError reports a failed client event back on the same connection.
func (s *Session) SendError(clientEvent string, reason string) {
	frame, err := encodeFrame(EventError, ErrorPayload{Event: clientEvent, Reason: reason})
	if err != nil {
		return
	}
	if err := s.enqueue(frame); err != nil {
		s.log.Warn("Could not report protocol error to session",
			"user_id", s.UserID,
			"reason", reason)
	}
}

func (s *Session) enqueue(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session closed for user %s", s.UserID)
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return fmt.Errorf("session buffer full for user %s", s.UserID)
	}
}

// writePump drains the send buffer onto the websocket and keeps the
// connection alive with pings. It exits when Close is called or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close shuts the outbound channel exactly once, which unwinds the write pump.
// A fan-out may still hold this session after it left the registry, so the
// closed flag turns any later Consume into a dropped-event error rather than
// a send on a closed channel.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.send)
	})
}
