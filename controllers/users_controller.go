package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/models"
	"front/services"
)

func (ctl *Controller) UsersSettings(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionUsers)
	if !user.IsAdmin() {
		ctl.logger.Warn("non-admin user tried to access users settings", zap.String("username", user.Username))
		page.Denied = true
		renderSettings(c, page)
		return
	}

	users, err := ctl.clients.Current().GetUsers(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to get users", err)
		if errResp, ok := services.AsErrorResponse(err); ok {
			renderSettings(c, page.fail(errResp.Message))
			return
		}
		page.LoadError = "Failed to load users. Please try again later."
		renderSettings(c, page)
		return
	}
	page.Users = users.Users
	renderSettings(c, page)
}

// refreshUsers re-renders the users section after a mutation, keeping
// whatever notifications the page already carries.
func (ctl *Controller) refreshUsers(c *gin.Context, page *settingsPage) {
	_, user := currentUser(c)
	users, err := ctl.clients.Current().GetUsers(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to refresh users", err)
		page.Successes = nil
		renderSettings(c, page.fail(errorMessage(err, "Failed to refresh the users list")))
		return
	}
	page.Users = users.Users
	renderSettings(c, page)
}

func (ctl *Controller) DeleteUser(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionUsers)
	if !user.IsAdmin() {
		renderSettings(c, page.fail(msgAdminRequired))
		return
	}

	id := c.Param("id")
	resp, err := ctl.clients.Current().DeleteUser(c.Request.Context(), id, user.Token)
	if err != nil {
		ctl.logFailure("failed to delete user", err, zap.String("user_id", id))
		renderSettings(c, page.fail(errorMessage(err, "Failed to delete user")))
		return
	}
	ctl.refreshUsers(c, page.succeed(resp.Message))
}

func (ctl *Controller) EditUserForm(c *gin.Context) {
	_, user := currentUser(c)
	if !user.IsAdmin() {
		renderSettings(c, newSettingsPage(user, sectionUsers).fail(msgAdminRequired))
		return
	}

	id := c.Param("id")
	target, err := ctl.clients.Current().GetUser(c.Request.Context(), id, user.Token)
	if err != nil {
		ctl.logFailure("failed to get user", err, zap.String("user_id", id))
		renderSettings(c, newSettingsPage(user, sectionUsers).fail(errorMessage(err, "Failed to fetch user details")))
		return
	}
	c.HTML(http.StatusOK, "user_modal.html", userModal{User: target, Self: target.ID == user.ID})
}

func (ctl *Controller) NewUserForm(c *gin.Context) {
	_, user := currentUser(c)
	if !user.IsAdmin() {
		renderSettings(c, newSettingsPage(user, sectionUsers).fail(msgAdminRequired))
		return
	}
	c.HTML(http.StatusOK, "user_modal.html", userModal{})
}

func userInputFromForm(c *gin.Context) models.UserInput {
	return models.UserInput{
		Username: strings.TrimSpace(c.PostForm("username")),
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
		Roles:    models.RolesFor(c.PostForm("is_admin") == "on"),
	}
}

// EditUser updates a user. Editing oneself also refreshes the username held
// in the session.
func (ctl *Controller) EditUser(c *gin.Context) {
	sess, user := currentUser(c)
	page := newSettingsPage(user, sectionUsers)
	if !user.IsAdmin() {
		renderSettings(c, page.fail(msgAdminRequired))
		return
	}

	id := c.Param("id")
	input := userInputFromForm(c)
	if input.Username == "" || input.Email == "" {
		ctl.refreshUsers(c, page.fail("Username and email are required"))
		return
	}

	resp, err := ctl.clients.Current().EditUser(c.Request.Context(), id, input, user.Token)
	if err != nil {
		ctl.logFailure("failed to edit user", err, zap.String("user_id", id))
		ctl.refreshUsers(c, page.fail(errorMessage(err, "Failed to update user")))
		return
	}

	if id == user.ID {
		updated := *user
		updated.Username = input.Username
		updated.Email = input.Email
		sess.SetUser(&updated)
		if err := sess.Save(c); err != nil {
			ctl.logger.Warn("failed to update session user", zap.Error(err))
		}
		page.User = &updated
	}
	ctl.refreshUsers(c, page.succeed(resp.Message))
}

func (ctl *Controller) CreateUser(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionUsers)
	if !user.IsAdmin() {
		renderSettings(c, page.fail(msgAdminRequired))
		return
	}

	input := userInputFromForm(c)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		ctl.refreshUsers(c, page.fail("Username, email and password are required"))
		return
	}

	resp, err := ctl.clients.Current().CreateUser(c.Request.Context(), input, user.Token)
	if err != nil {
		ctl.logFailure("failed to create user", err, zap.String("username", input.Username))
		ctl.refreshUsers(c, page.fail(errorMessage(err, "Failed to create user")))
		return
	}
	ctl.refreshUsers(c, page.succeed(resp.Message))
}
