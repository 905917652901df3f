// Package rest exposes the HTTP surface: the websocket upgrade endpoint and
// the conversation routes that mirror the realtime protocol for plain HTTP
// clients.
package rest

import (
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-chat/auth"
	"social-chat/contract"
	"social-chat/domain"
	apperrors "social-chat/errors"
	"social-chat/infrastructure/ws"
)

type Server struct {
	log     *slog.Logger
	service contract.IChatService
}

// NewRouter wires the gin engine: CORS, the /ws upgrade and the token-guarded
// conversation routes.
func NewRouter(log *slog.Logger, verifier contract.TokenVerifier, service contract.IChatService, gateway *ws.Gateway) *gin.Engine {
	server := &Server{log: log, service: service}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/ws", gin.WrapF(gateway.Handle))

	api := router.Group("/api")
	api.Use(TokenAuthMiddleware(verifier))
	{
		api.POST("/conversations", server.createConversation)
		api.GET("/conversations", server.listConversations)
		api.GET("/conversations/:id", server.getConversation)
	}
	return router
}

// TokenAuthMiddleware resolves the bearer credential and stores the user
// identity in the request context. Requests without a valid token never reach
// the handlers.
func TokenAuthMiddleware(verifier contract.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func (s *Server) createConversation(c *gin.Context) {
	var req auth.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participants is required"})
		return
	}
	if err := auth.ValidateCreateConversation(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participants is required"})
		return
	}

	conversation, err := s.service.CreateConversation(c.Request.Context(), domain.CreateConversationCommand{
		Creator:      c.GetString("user_id"),
		Participants: req.Participants,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (s *Server) listConversations(c *gin.Context) {
	conversations, err := s.service.ConversationsFor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	c.JSON(http.StatusOK, conversations)
}

func (s *Server) getConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conversation, err := s.service.Conversation(c.Request.Context(), c.GetString("user_id"), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case goerrors.Is(err, apperrors.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case goerrors.Is(err, apperrors.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	case goerrors.Is(err, apperrors.ErrNoParticipants),
		goerrors.Is(err, apperrors.ErrEmptyContent),
		goerrors.Is(err, apperrors.ErrContentTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error("Unhandled API error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
