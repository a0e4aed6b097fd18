package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/config"
	"front/middlewares"
	"front/models"
	"front/services"
)

const (
	msgChatPageFailed = "Failed to prepare the chat page. Please try again later."
	msgAdminRequired  = "Admin privileges required"
)

type Controller struct {
	clients     *services.ClientHolder
	connections *config.ConnectionStore
	logger      *zap.Logger
}

func NewController(clients *services.ClientHolder, connections *config.ConnectionStore, logger *zap.Logger) *Controller {
	return &Controller{
		clients:     clients,
		connections: connections,
		logger:      logger,
	}
}

// currentUser is only called behind LoginRequired, so the user is present.
func currentUser(c *gin.Context) (*middlewares.Session, *models.AuthResponse) {
	sess := middlewares.CurrentSession(c)
	return sess, sess.User()
}

// errorMessage returns the upstream message for upstream errors and fallback
// for anything else.
func errorMessage(err error, fallback string) string {
	if errResp, ok := services.AsErrorResponse(err); ok {
		return errResp.Message
	}
	return fallback
}

func (ctl *Controller) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if _, ok := services.AsErrorResponse(err); ok {
		ctl.logger.Warn(msg, fields...)
		return
	}
	ctl.logger.Error(msg, fields...)
}
