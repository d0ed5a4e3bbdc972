package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calchat/calchat/internal/agent"
	"github.com/calchat/calchat/internal/google"
	"github.com/calchat/calchat/internal/logging"
	"github.com/calchat/calchat/internal/store"
)

// defaultConversationTitle names conversations started implicitly by a
// chat request that carries no conversation id.
const defaultConversationTitle = "New Chat"

// Options configures the HTTP server.
type Options struct {
	Loop   *agent.Loop
	Store  *store.Store
	Auth   Authenticator
	OAuth  *google.OAuth
	Logger *slog.Logger
	Addr   string
}

// Server serves the calchat HTTP API.
type Server struct {
	loop   *agent.Loop
	store  *store.Store
	auth   Authenticator
	oauth  *google.OAuth
	logger *slog.Logger
	addr   string
	router *gin.Engine
}

// New validates the options and builds the server with its routes
// registered.
func New(opts Options) (*Server, error) {
	if opts.Loop == nil {
		return nil, fmt.Errorf("server: agent loop is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if opts.Auth == nil {
		return nil, fmt.Errorf("server: authenticator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8000"
	}

	s := &Server{
		loop:   opts.Loop,
		store:  opts.Store,
		auth:   opts.Auth,
		oauth:  opts.OAuth,
		logger: logger,
		addr:   addr,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", requireAuth(s.auth))
	authed.POST("/chat", s.handleChat)
	authed.GET("/conversations", s.handleConversations)
	authed.GET("/conversations/:id/messages", s.handleMessages)
	authed.GET("/appointments", s.handleAppointments)
	authed.POST("/google-calendar/connect", s.handleCalendarConnect)
	authed.POST("/google-calendar/callback", s.handleCalendarCallback)

	s.router = router
	return s, nil
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", logging.Err(err))
		}
	}()

	s.logger.Info("http server listening", slog.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func (s *Server) handleChat(c *gin.Context) {
	userID := currentUser(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conv, err := s.store.CreateConversation(c.Request.Context(), userID, defaultConversationTitle)
		if err != nil {
			s.logger.Error("failed to create conversation", logging.UserHash(userID), logging.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
			return
		}
		conversationID = conv.ID
	}

	reply := s.loop.ProcessMessage(c.Request.Context(), userID, conversationID, req.Message)

	c.JSON(http.StatusOK, chatResponse{
		Response:       reply,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
	})
}

func (s *Server) handleConversations(c *gin.Context) {
	userID := currentUser(c)

	convs, err := s.store.Conversations(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list conversations", logging.UserHash(userID), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (s *Server) handleMessages(c *gin.Context) {
	userID := currentUser(c)
	conversationID := c.Param("id")

	msgs, err := s.store.Messages(c.Request.Context(), conversationID)
	if err != nil {
		s.logger.Error("failed to list messages", logging.UserHash(userID), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	// Messages are scoped by conversation; reject access to another
	// user's conversation rather than leaking its contents.
	for _, m := range msgs {
		if m.UserID != userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) handleAppointments(c *gin.Context) {
	userID := currentUser(c)

	appts, err := s.store.Appointments(c.Request.Context(), userID, nil)
	if err != nil {
		s.logger.Error("failed to list appointments", logging.UserHash(userID), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list appointments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (s *Server) handleCalendarConnect(c *gin.Context) {
	if s.oauth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar integration is not configured"})
		return
	}

	userID := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": s.oauth.AuthURL(userID),
	})
}

type calendarCallbackRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) handleCalendarCallback(c *gin.Context) {
	if s.oauth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar integration is not configured"})
		return
	}

	userID := currentUser(c)

	var req calendarCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	tokenJSON, err := s.oauth.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		s.logger.Error("auth code exchange failed", logging.UserHash(userID), logging.Err(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authorization code exchange failed"})
		return
	}

	if err := s.store.SaveGoogleToken(c.Request.Context(), userID, tokenJSON); err != nil {
		s.logger.Error("failed to store google token", logging.UserHash(userID), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
