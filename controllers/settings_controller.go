package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/middlewares"
)

func (ctl *Controller) Settings(c *gin.Context) {
	middlewares.Redirect(c, "/settings/"+sectionChatHistory)
}

func (ctl *Controller) ChatHistorySettings(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionChatHistory)

	convs, err := ctl.clients.Current().GetConversations(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to get conversations", err, zap.String("username", user.Username))
		page.LoadError = errorMessage(err, "Failed to load conversations. Please try again later.")
	} else {
		page.Conversations = convs.Conversations
	}
	renderSettings(c, page)
}

func (ctl *Controller) DeleteConversation(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionChatHistory)
	client := ctl.clients.Current()
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := client.DeleteConversation(ctx, id, user.Token); err != nil {
		ctl.logFailure("failed to delete conversation", err, zap.String("conversation_id", id))
		renderSettings(c, page.fail(errorMessage(err, "Error deleting conversation")))
		return
	}

	convs, err := client.GetConversations(ctx, user.Token)
	if err != nil {
		ctl.logFailure("failed to refresh conversations", err)
		renderSettings(c, page.fail(errorMessage(err, "Conversation deleted but failed to refresh the list")))
		return
	}
	page.Conversations = convs.Conversations
	renderSettings(c, page.succeed("Conversation deleted successfully"))
}

func (ctl *Controller) DeleteAllConversations(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionChatHistory)

	if _, err := ctl.clients.Current().DeleteAllConversations(c.Request.Context(), user.Token); err != nil {
		ctl.logFailure("failed to delete all conversations", err)
		renderSettings(c, page.fail(errorMessage(err, "Error deleting conversations")))
		return
	}
	renderSettings(c, page.succeed("All conversations deleted successfully"))
}

func (ctl *Controller) ConnectionSettings(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionConnection)
	if !user.IsAdmin() {
		ctl.logger.Warn("non-admin user tried to access connection settings", zap.String("username", user.Username))
		page.Denied = true
		renderSettings(c, page)
		return
	}

	endpoint, err := ctl.connections.Endpoint()
	if err != nil {
		ctl.logger.Error("failed to read connection endpoint", zap.Error(err))
		page.fail(err.Error())
	}
	page.Endpoint = endpoint
	renderSettings(c, page)
}

func (ctl *Controller) GetConnectionEndpoint(c *gin.Context) {
	endpoint, err := ctl.connections.Endpoint()
	if err != nil {
		ctl.logger.Error("failed to read connection endpoint", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": http.StatusInternalServerError, "message": err.Error()},
		})
		return
	}
	c.String(http.StatusOK, endpoint)
}

// UpdateConnectionEndpoint saves the endpoint and swaps in a client for it.
func (ctl *Controller) UpdateConnectionEndpoint(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionConnection)
	if !user.IsAdmin() {
		page.Denied = true
		renderSettings(c, page.fail(msgAdminRequired))
		return
	}

	endpoint := strings.TrimSpace(c.PostForm("endpoint"))
	page.Endpoint = endpoint
	if err := ctl.connections.UpdateEndpoint(endpoint); err != nil {
		ctl.logger.Error("failed to update connection endpoint", zap.Error(err))
		renderSettings(c, page.fail(err.Error()))
		return
	}
	if err := ctl.clients.Reload(); err != nil {
		ctl.logger.Error("failed to reload assistant client", zap.Error(err))
		renderSettings(c, page.fail(err.Error()))
		return
	}

	ctl.logger.Info("connection endpoint updated", zap.String("endpoint", endpoint), zap.String("by", user.Username))
	renderSettings(c, page.succeed("Connection settings saved successfully"))
}
