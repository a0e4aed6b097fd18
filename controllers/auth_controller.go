package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/middlewares"
)

func (ctl *Controller) LoginPage(c *gin.Context) {
	if sess := middlewares.CurrentSession(c); sess != nil && sess.User() != nil {
		middlewares.Redirect(c, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{Message: c.Query("message")})
}

func (ctl *Controller) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.HTML(http.StatusOK, "login.html", loginPage{
			Message:  "Username and password are required.",
			Username: username,
		})
		return
	}

	auth, err := ctl.clients.Current().Authenticate(c.Request.Context(), username, password)
	if err != nil {
		ctl.logFailure("login failed", err, zap.String("username", username))
		c.HTML(http.StatusOK, "login.html", loginPage{
			Message:  errorMessage(err, "Authentication failed. Please try again."),
			Username: username,
		})
		return
	}

	sess := middlewares.CurrentSession(c)
	sess.SetUser(auth)
	if err := sess.Save(c); err != nil {
		ctl.logger.Error("failed to save session", zap.String("username", username), zap.Error(err))
		c.HTML(http.StatusOK, "login.html", loginPage{
			Message:  "Authentication failed. Please try again.",
			Username: username,
		})
		return
	}

	ctl.logger.Info("login successful", zap.String("username", username))
	middlewares.Redirect(c, "/")
}

func (ctl *Controller) Logout(c *gin.Context) {
	if sess := middlewares.CurrentSession(c); sess != nil {
		if err := sess.Clear(c); err != nil {
			ctl.logger.Warn("failed to delete session", zap.Error(err))
		}
	}

	location := "/login"
	if message := c.Query("message"); message != "" {
		location += "?message=" + url.QueryEscape(message)
	}
	middlewares.Redirect(c, location)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
