package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"front/middlewares"
	"front/models"
	"front/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func (ctl *Controller) Home(c *gin.Context) {
	ctl.renderChat(c, "")
}

func (ctl *Controller) ConversationPage(c *gin.Context) {
	ctl.renderChat(c, c.Param("id"))
}

func (ctl *Controller) renderChat(c *gin.Context, conversationID string) {
	sess, user := currentUser(c)
	client := ctl.clients.Current()
	ctx := c.Request.Context()
	page := chatPage{User: user}

	if conversationID != "" {
		conv, err := client.GetConversation(ctx, conversationID, user.Token)
		if err != nil {
			ctl.logFailure("failed to get conversation", err, zap.String("conversation_id", conversationID))
			page.Errors = append(page.Errors, errorMessage(err, msgChatPageFailed))
		} else {
			page.Conversation = conv
		}
	}

	convs, err := client.GetConversations(ctx, user.Token)
	if err != nil {
		ctl.logFailure("failed to get conversations", err)
		page.Errors = append(page.Errors, errorMessage(err, msgChatPageFailed))
	} else {
		page.Conversations = convs.Conversations
	}

	llms, err := client.GetLLMs(ctx, user.Token)
	if err != nil {
		ctl.logFailure("failed to get llms", err)
		page.Errors = append(page.Errors, errorMessage(err, msgChatPageFailed))
	} else {
		page.LLMOptions = ctl.llmOptions(c, sess, llms.LLMs)
	}

	c.HTML(http.StatusOK, "chat.html", page)
}

// llmOptions builds the selector entries. When nothing is selected yet the
// first model becomes the session's choice.
func (ctl *Controller) llmOptions(c *gin.Context, sess *middlewares.Session, llms []models.LLM) []models.LLMOption {
	selected := sess.SelectedLLM()
	if selected == "" && len(llms) > 0 {
		selected = llms[0].ID
		sess.SetSelectedLLM(selected)
		if err := sess.Save(c); err != nil {
			ctl.logger.Warn("failed to save selected llm", zap.Error(err))
		}
	}

	options := make([]models.LLMOption, 0, len(llms))
	for _, llm := range llms {
		options = append(options, models.LLMOption{
			ID:       llm.ID,
			Name:     llm.Name,
			Selected: llm.ID == selected,
		})
	}
	return options
}

func (ctl *Controller) SetLLM(c *gin.Context) {
	var req struct {
		Model string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No model provided"})
		return
	}

	sess := middlewares.CurrentSession(c)
	sess.SetSelectedLLM(req.Model)
	if err := sess.Save(c); err != nil {
		ctl.logger.Error("failed to save selected llm", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to save model selection"})
		return
	}
	ctl.logger.Debug("selected llm", zap.String("model", req.Model))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CreateChat validates a new message and creates the conversation when the
// request does not name one. The reply itself is fetched by StreamChat.
func (ctl *Controller) CreateChat(c *gin.Context) {
	sess, user := currentUser(c)
	text := c.PostForm("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No text provided"})
		return
	}
	if sess.SelectedLLM() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No LLM selected"})
		return
	}

	if c.Query("conversation_id") != "" {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	conv, err := ctl.clients.Current().CreateConversation(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to create conversation", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"conversation_id": conv.ConversationID,
		"initial_text":    text,
	})
}

// StreamChat relays the assistant's SSE frames. A failure once streaming has
// begun aborts the response instead of reporting the error in-band.
func (ctl *Controller) StreamChat(c *gin.Context) {
	sess, user := currentUser(c)
	text := c.Query("text")
	conversationID := c.Query("conversation_id")
	switch {
	case text == "":
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No text provided"})
		return
	case sess.SelectedLLM() == "":
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No LLM selected"})
		return
	case conversationID == "":
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No conversation ID provided"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	req := models.ConversationRequest{
		ConversationID: conversationID,
		LLMID:          sess.SelectedLLM(),
		Query:          text,
	}
	err := ctl.clients.Current().StreamConversation(c.Request.Context(), req, user.Token, func(frame []byte) error {
		if _, err := c.Writer.Write(frame); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ctl.logger.Debug("chat stream cancelled by client", zap.String("conversation_id", conversationID))
		} else {
			ctl.logger.Error("chat stream failed", zap.String("conversation_id", conversationID), zap.Error(err))
		}
		panic(http.ErrAbortHandler)
	}
}

type socketMessage struct {
	Text string `json:"text"`
}

// ChatSocket is the websocket flavour of the chat relay. Each incoming
// {"text": ...} message is answered with the upstream SSE frames, one frame
// per websocket text message.
func (ctl *Controller) ChatSocket(c *gin.Context) {
	sess, user := currentUser(c)
	conversationID := c.Query("conversation_id")
	llmID := sess.SelectedLLM()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ctl.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		switch {
		case msg.Text == "":
			_ = conn.WriteJSON(gin.H{"status": "error", "message": "No text provided"})
			continue
		case llmID == "":
			_ = conn.WriteJSON(gin.H{"status": "error", "message": "No LLM selected"})
			continue
		}

		client := ctl.clients.Current()
		if conversationID == "" {
			conv, err := client.CreateConversation(ctx, user.Token)
			if err != nil {
				ctl.logFailure("failed to create conversation", err)
				_ = conn.WriteJSON(gin.H{"status": "error", "message": errorMessage(err, "Failed to create conversation")})
				if services.AuthExpired(ctx) {
					return
				}
				continue
			}
			conversationID = conv.ConversationID
			if err := conn.WriteJSON(gin.H{"status": "success", "conversation_id": conversationID}); err != nil {
				return
			}
		}

		req := models.ConversationRequest{ConversationID: conversationID, LLMID: llmID, Query: msg.Text}
		err := client.StreamConversation(ctx, req, user.Token, func(frame []byte) error {
			return conn.WriteMessage(websocket.TextMessage, frame)
		})
		if err != nil {
			ctl.logger.Error("websocket chat stream failed", zap.String("conversation_id", conversationID), zap.Error(err))
			return
		}
	}
}
