package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/models"
)

const botSender = "Assistant"

func (s *Server) chat(c *gin.Context) {
	var req models.ConversationRequest
	_ = c.ShouldBindJSON(&req)
	if req.ConversationID == "" {
		raiseError(c, http.StatusBadRequest, "BAD_REQUEST", "Missing conversationId")
		return
	}

	ctx := c.Request.Context()
	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		s.storeError(c, err, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return
	}

	if len(conv.Messages) == 0 && strings.TrimSpace(req.Query) != "" {
		if err := s.store.RenameConversation(ctx, conv.ConversationID, req.Query); err != nil {
			s.logger.Warn("failed to title conversation", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
		}
	}

	userMsg := models.ChatMessage{
		MessageID:  newID(),
		Sender:     currentAccount(c).Username,
		SenderType: models.SenderTypeUser,
		Content:    req.Query,
		Timestamp:  timestamp(),
	}
	if err := s.record(ctx, conv.ConversationID, userMsg); err != nil {
		s.storeError(c, err, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return
	}
	history := append(conv.Messages, userMsg)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var reply strings.Builder
	err = s.responder.Respond(ctx, req.LLMID, history, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply.WriteString(chunk)
		c.SSEvent(EventContent, chunk)
		c.Writer.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("responder failed", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
		if reply.Len() == 0 {
			msg := "Sorry, I could not generate a response."
			reply.WriteString(msg)
			c.SSEvent(EventContent, msg)
		}
	}
	if ctx.Err() == nil {
		c.SSEvent(EventEndOfResponse, "")
		c.Writer.Flush()
	}

	// the client may be gone by now, the reply is still kept
	botMsg := models.ChatMessage{
		MessageID:  newID(),
		Sender:     botSender,
		SenderType: models.SenderTypeBot,
		Content:    reply.String(),
		Timestamp:  timestamp(),
	}
	if err := s.record(context.WithoutCancel(ctx), conv.ConversationID, botMsg); err != nil {
		s.logger.Error("failed to save bot message", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
	}
}

// record appends msg to the conversation and mirrors it to the archive.
// Archive failures are logged only.
func (s *Server) record(ctx context.Context, conversationID string, msg models.ChatMessage) error {
	if err := s.store.AppendMessage(ctx, conversationID, msg); err != nil {
		return err
	}
	if err := s.archive.Archive(ctx, conversationID, msg); err != nil {
		s.logger.Warn("failed to archive message", zap.String("conversation_id", conversationID), zap.Error(err))
	}
	return nil
}
