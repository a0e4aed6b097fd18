package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/models"
)

const (
	tokenPrefix = "mock_token_"
	accountKey  = "account"

	EventContent       = "content"
	EventEndOfResponse = "end_of_response"
)

// Server is a stand-in for the assistant API, good enough to drive the front
// end locally and in tests.
type Server struct {
	store     Store
	archive   Archiver
	responder Responder
	logger    *zap.Logger
}

func NewServer(store Store, archive Archiver, responder Responder, logger *zap.Logger) *Server {
	if archive == nil {
		archive = nopArchiver{}
	}
	return &Server{
		store:     store,
		archive:   archive,
		responder: responder,
		logger:    logger,
	}
}

func (s *Server) Close() error {
	return s.store.Close()
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/assistant")
	api.POST("/auth", s.authenticate)

	authed := api.Group("", s.verifyToken)
	authed.GET("/llms", s.listLLMs)

	authed.POST("/conversations", s.createConversation)
	authed.GET("/conversations", s.listConversations)
	authed.DELETE("/conversations/delete/all", s.deleteAllConversations)
	authed.GET("/conversations/:id", s.getConversation)
	authed.GET("/conversations/:id/transcript", s.getTranscript)
	authed.DELETE("/conversations/:id", s.deleteConversation)

	authed.GET("/users", s.listUsers)
	authed.POST("/users", s.requireAdmin("create user"), s.createUser)
	authed.GET("/users/:id", s.requireAdmin("get user"), s.getUser)
	authed.PUT("/users/:id", s.requireAdmin("edit user"), s.editUser)
	authed.DELETE("/users/:id", s.requireAdmin("delete user"), s.deleteUser)

	authed.GET("/knowledge-base", s.listKnowledgeBases)
	authed.POST("/knowledge-base", s.createKnowledgeBase)
	authed.GET("/knowledge-base/:id", s.getKnowledgeBase)
	authed.PUT("/knowledge-base/:id", s.editKnowledgeBase)
	authed.DELETE("/knowledge-base/:id", s.deleteKnowledgeBase)

	authed.POST("/chat", s.chat)

	return r
}

func raiseError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{ErrorCode: code, Message: message})
}

func (s *Server) storeError(c *gin.Context, err error, notFoundCode, notFoundMessage string) {
	if errors.Is(err, ErrNotFound) {
		raiseError(c, http.StatusNotFound, notFoundCode, notFoundMessage)
		return
	}
	s.logger.Error("mock store failure", zap.String("path", c.FullPath()), zap.Error(err))
	raiseError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func currentAccount(c *gin.Context) *Account {
	return c.MustGet(accountKey).(*Account)
}

func (s *Server) authenticate(c *gin.Context) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&creds)
	if creds.Username == "" || creds.Password == "" {
		raiseError(c, http.StatusBadRequest, "MISSING_DATA", "Username and password are required")
		return
	}

	acct, err := s.store.FindAccount(c.Request.Context(), creds.Username)
	if errors.Is(err, ErrNotFound) {
		raiseError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username")
		return
	}
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	if acct.Password != creds.Password {
		raiseError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid password")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:    tokenPrefix + acct.Username,
		ID:       acct.ID,
		Email:    acct.Email,
		Username: acct.Username,
		Roles:    acct.Roles,
	})
}

// verifyToken accepts "Bearer mock_token_<username>" for any existing user.
func (s *Server) verifyToken(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	username, ok2 := strings.CutPrefix(token, tokenPrefix)
	if !ok || !ok2 || username == "" {
		raiseError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authorization token")
		return
	}

	acct, err := s.store.FindAccount(c.Request.Context(), username)
	if err != nil {
		raiseError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authorization token")
		return
	}
	c.Set(accountKey, acct)
	c.Next()
}

func (s *Server) requireAdmin(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentAccount(c).IsAdmin() {
			raiseError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Sprintf("Cannot %s: Missing admin permission", action))
			return
		}
		c.Next()
	}
}

func (s *Server) listLLMs(c *gin.Context) {
	c.JSON(http.StatusOK, models.LLMsResponse{LLMs: seedLLMs})
}

func (s *Server) createConversation(c *gin.Context) {
	conv, err := s.store.CreateConversation(c.Request.Context(), "New chat")
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.NewConversationResponse{
		ConversationID: conv.ConversationID,
		Title:          conv.Title,
	})
}

func (s *Server) listConversations(c *gin.Context) {
	convs, err := s.store.ListConversations(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.ConversationsResponse{Conversations: convs})
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.store.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) getTranscript(c *gin.Context) {
	reader, ok := s.archive.(interface {
		Transcript(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
	})
	if !ok {
		raiseError(c, http.StatusNotFound, "ARCHIVE_DISABLED", "No transcript archive is configured")
		return
	}
	messages, err := reader.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": c.Param("id"), "messages": messages})
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.store.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "Conversation deleted successfully."})
}

func (s *Server) deleteAllConversations(c *gin.Context) {
	if err := s.store.DeleteAllConversations(c.Request.Context()); err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "All conversations deleted successfully."})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.UsersResponse{Users: users})
}

func (s *Server) getUser(c *gin.Context) {
	acct, err := s.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}
	c.JSON(http.StatusOK, acct.User)
}

func (s *Server) deleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	acct, err := s.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		s.storeError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}
	if acct.IsAdmin() {
		raiseError(c, http.StatusForbidden, "FORBIDDEN", "Cannot delete user: Admin users cannot be deleted")
		return
	}
	if err := s.store.DeleteUser(ctx, acct.ID); err != nil {
		s.storeError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "User removed successfully."})
}

func (s *Server) editUser(c *gin.Context) {
	var input models.UserInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Username == "" || input.Email == "" {
		raiseError(c, http.StatusBadRequest, "BAD_REQUEST", "Username and email are required")
		return
	}
	err := s.store.UpdateUser(c.Request.Context(), c.Param("id"), input)
	if errors.Is(err, ErrDuplicate) {
		raiseError(c, http.StatusForbidden, "FORBIDDEN", "Username already exists")
		return
	}
	if err != nil {
		s.storeError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "User edited successfully."})
}

func (s *Server) createUser(c *gin.Context) {
	var input models.UserInput
	_ = c.ShouldBindJSON(&input)

	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"username", input.Username == ""},
		{"email", input.Email == ""},
		{"password", input.Password == ""},
		{"roles", len(input.Roles) == 0},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		raiseError(c, http.StatusBadRequest, "BAD_REQUEST", "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	_, err := s.store.CreateUser(c.Request.Context(), input)
	if errors.Is(err, ErrDuplicate) {
		raiseError(c, http.StatusForbidden, "FORBIDDEN", "Username already exists")
		return
	}
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "User created successfully."})
}

func (s *Server) listKnowledgeBases(c *gin.Context) {
	kbs, err := s.store.ListKnowledgeBases(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.KnowledgeBasesResponse{KnowledgeBases: kbs})
}

func (s *Server) getKnowledgeBase(c *gin.Context) {
	kb, err := s.store.GetKnowledgeBase(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err, "KNOWLEDGE_BASE_NOT_FOUND", "Knowledge base not found")
		return
	}
	c.JSON(http.StatusOK, kb)
}

func bindKnowledgeBase(c *gin.Context) (models.KnowledgeBaseInput, bool) {
	var input models.KnowledgeBaseInput
	_ = c.ShouldBindJSON(&input)

	var missing []string
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		raiseError(c, http.StatusBadRequest, "BAD_REQUEST", "Missing required fields: "+strings.Join(missing, ", "))
		return input, false
	}
	return input, true
}

func (s *Server) createKnowledgeBase(c *gin.Context) {
	input, ok := bindKnowledgeBase(c)
	if !ok {
		return
	}
	if _, err := s.store.CreateKnowledgeBase(c.Request.Context(), input); err != nil {
		s.storeError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "Knowledge base created successfully."})
}

func (s *Server) editKnowledgeBase(c *gin.Context) {
	input, ok := bindKnowledgeBase(c)
	if !ok {
		return
	}
	if err := s.store.UpdateKnowledgeBase(c.Request.Context(), c.Param("id"), input); err != nil {
		s.storeError(c, err, "KNOWLEDGE_BASE_NOT_FOUND", "Knowledge base not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "Knowledge base updated successfully."})
}

func (s *Server) deleteKnowledgeBase(c *gin.Context) {
	if err := s.store.DeleteKnowledgeBase(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err, "KNOWLEDGE_BASE_NOT_FOUND", "Knowledge base not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericActionResponse{Message: "Knowledge base deleted successfully."})
}
