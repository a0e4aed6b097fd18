package middlewares

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/services"
)

// LogoutPath is where sessions rejected by the upstream are sent.
const LogoutPath = "/api/logout"

// LoginRequired guards routes that need a logged-in user. Handler output is
// held back until the handler flushes or returns, so that a 401 seen on any
// upstream call can still replace the page with a redirect to logout.
func LoginRequired(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || sess.User() == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		ctx, state := services.WithAuthState(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		original := c.Writer
		deferred := newDeferredWriter(original)
		c.Writer = deferred
		defer func() { c.Writer = original }()

		c.Next()

		if state.Expired() && !deferred.Committed() {
			logger.Info("upstream rejected session token",
				zap.String("username", sess.User().Username),
				zap.String("path", c.Request.URL.Path),
			)
			c.Writer = original
			Redirect(c, LogoutPath+"?message="+url.QueryEscape(services.SessionExpiredMessage))
			return
		}
		deferred.commit()
	}
}

// Redirect answers htmx requests with an HX-Redirect header and everything
// else with a 303.
func Redirect(c *gin.Context, location string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
