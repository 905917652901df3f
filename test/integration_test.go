package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"social-chat/auth"
	"social-chat/contract"
	"social-chat/domain"
	"social-chat/infrastructure/rest"
	"social-chat/infrastructure/ws"
	"social-chat/internal"
	"social-chat/moderation"
	"social-chat/notify"
	"social-chat/repositories"
	"social-chat/runtime"
	"social-chat/services"
)

const testSecret = "integration_test_secret"

type stack struct {
	server        *httptest.Server
	notifications chan contract.Notification
}

// newStack wires the full server the way cmd/server does, backed by a
// throwaway badger directory and a fake push endpoint.
func newStack(t *testing.T) stack {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	notifications := make(chan contract.Notification, 16)
	pushEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n contract.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err == nil {
			notifications <- n
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(pushEndpoint.Close)

	logger := internal.LoggerFromString("ERROR")
	censor, err := moderation.NewCensor(nil, '*')
	req.NoError(err)

	repository := repositories.NewConversationRepository(db, logger, clock.New())
	registry := runtime.NewRegistry()
	notifier := notify.NewDispatcher(pushEndpoint.URL, "", time.Second)
	directory := repositories.NewStaticUserDirectory(map[string]string{"u1": "Alice"})
	verifier := auth.NewVerifier(testSecret)

	chatService := services.NewChatService(
		logger, repository, registry, notifier, directory, censor, time.Second)
	gateway := ws.NewGateway(logger, verifier, registry, chatService, 5*time.Second, 64)
	router := rest.NewRouter(logger, verifier, chatService, gateway)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return stack{server: server, notifications: notifications}
}

func (s stack) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

func connect(t *testing.T, s stack, userID string) *websocket.Conn {
	t.Helper()
	req := require.New(t)

	token, err := auth.GenerateToken(testSecret, userID, time.Hour)
	req.NoError(err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), header)
	req.NoError(err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(ws.Frame{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) ws.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame ws.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func Test_Handshake_Without_Token_Is_Refused(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func Test_Conversation_Create_Reaches_Both_Participants(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	// Given U1 and U2 are both connected
	u1 := connect(t, s, "u1")
	u2 := connect(t, s, "u2")

	// When U1 opens a conversation with U2
	send(t, u1, ws.EventCreateConversation, map[string]any{"participants": []string{"u2"}})

	// Then both receive the announcement with the empty thread
	for _, conn := range []*websocket.Conn{u1, u2} {
		frame := readFrame(t, conn)
		req.Equal(ws.EventConversationCreated, frame.Event)

		var conversation domain.Conversation
		req.NoError(json.Unmarshal(frame.Data, &conversation))
		req.Equal([]string{"u1", "u2"}, conversation.Participants)
		req.Empty(conversation.Messages)
	}
}

func Test_Message_Flows_To_The_Other_Participant(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	u1 := connect(t, s, "u1")
	u2 := connect(t, s, "u2")

	send(t, u1, ws.EventCreateConversation, map[string]any{"participants": []string{"u2"}})
	created := readFrame(t, u1)
	req.Equal(ws.EventConversationCreated, created.Event)
	_ = readFrame(t, u2) // U2's copy of the announcement

	var conversation domain.Conversation
	req.NoError(json.Unmarshal(created.Data, &conversation))

	// When U1 sends "hi"
	send(t, u1, ws.EventNewMessage, map[string]any{
		"conversationId": conversation.ID.String(),
		"message":        "hi",
	})

	// Then U2 receives the fan-out with a server-assigned timestamp
	frame := readFrame(t, u2)
	req.Equal(ws.EventMessage, frame.Event)

	var payload ws.MessagePayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal(conversation.ID, payload.ConversationID)
	req.Equal("u1", payload.Message.Author)
	req.Equal("hi", payload.Message.Content)
	req.True(payload.Message.SentAt.After(conversation.CreatedAt))

	// And U1's own session receives the echo as well
	echo := readFrame(t, u1)
	req.Equal(ws.EventMessage, echo.Event)

	// And exactly one push notification references the recipient
	select {
	case notification := <-s.notifications:
		req.Equal("u2", notification.UserID)
		req.Contains(notification.Body, "Alice")
	case <-time.After(2 * time.Second):
		req.Fail("Timeout: notification never reached the push endpoint")
	}
}

func Test_Oversized_Frame_Drops_The_Connection(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	// Given a connected client
	u1 := connect(t, s, "u1")

	// When it streams a frame far beyond the protocol's read limit
	oversized := strings.Repeat("x", 64<<10)
	send(t, u1, ws.EventNewMessage, map[string]any{
		"conversationId": "7f9c24e8-3b12-4a6e-9f84-0d2c4c1a2b3c",
		"message":        oversized,
	})

	// Then the server closes the connection instead of buffering the frame
	req.NoError(u1.SetReadDeadline(time.Now().Add(3 * time.Second)))
	_, _, err := u1.ReadMessage()
	req.Error(err)
}

func Test_Send_To_Unknown_Conversation_Yields_Error_Frame(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	u1 := connect(t, s, "u1")

	send(t, u1, ws.EventNewMessage, map[string]any{
		"conversationId": "7f9c24e8-3b12-4a6e-9f84-0d2c4c1a2b3c",
		"message":        "hello?",
	})

	frame := readFrame(t, u1)
	req.Equal(ws.EventError, frame.Event)

	var payload ws.ErrorPayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal(ws.EventNewMessage, payload.Event)
	req.Equal("not_found", payload.Reason)
}

func Test_Non_Participant_Send_Is_Rejected_And_Silent_For_Members(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	u1 := connect(t, s, "u1")
	u2 := connect(t, s, "u2")
	u3 := connect(t, s, "u3")

	send(t, u1, ws.EventCreateConversation, map[string]any{"participants": []string{"u2"}})
	created := readFrame(t, u1)
	_ = readFrame(t, u2)

	var conversation domain.Conversation
	req.NoError(json.Unmarshal(created.Data, &conversation))

	// When U3 tries to post into a thread it does not belong to
	send(t, u3, ws.EventNewMessage, map[string]any{
		"conversationId": conversation.ID.String(),
		"message":        "let me in",
	})

	// Then U3 gets an explicit rejection
	frame := readFrame(t, u3)
	req.Equal(ws.EventError, frame.Event)
	var payload ws.ErrorPayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal("not_member", payload.Reason)

	// And the members see nothing
	req.NoError(u1.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err := u1.ReadMessage()
	req.Error(err)
}

func Test_REST_Create_And_Fetch_Conversation(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	token, err := auth.GenerateToken(testSecret, "u1", time.Hour)
	req.NoError(err)

	// When U1 creates a conversation over plain HTTP
	body := strings.NewReader(`{"participants": ["u2"]}`)
	httpReq, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/conversations", body)
	req.NoError(err)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusCreated, resp.StatusCode)

	var created domain.Conversation
	req.NoError(json.NewDecoder(resp.Body).Decode(&created))
	req.Equal([]string{"u1", "u2"}, created.Participants)

	// Then the listing shows it
	listReq, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/conversations", nil)
	req.NoError(err)
	listReq.Header.Set("Authorization", "Bearer "+token)

	listResp, err := http.DefaultClient.Do(listReq)
	req.NoError(err)
	defer listResp.Body.Close()
	req.Equal(http.StatusOK, listResp.StatusCode)

	var conversations []domain.Conversation
	req.NoError(json.NewDecoder(listResp.Body).Decode(&conversations))
	req.Len(conversations, 1)
	req.Equal(created.ID, conversations[0].ID)

	// And an unauthenticated fetch is refused
	anonResp, err := http.Get(s.server.URL + "/api/conversations")
	req.NoError(err)
	defer anonResp.Body.Close()
	req.Equal(http.StatusUnauthorized, anonResp.StatusCode)
}
