package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"front/models"
	"front/services"
)

const testCookie = "session_"

func init() {
	gin.SetMode(gin.TestMode)
}

func newGatedRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, services.SessionStore) {
	t.Helper()
	store := services.NewMemorySessionStore(time.Hour)
	r := gin.New()
	r.Use(Sessions(store, SessionOptions{CookieName: testCookie, TTL: time.Hour}, zap.NewNop()))
	r.GET("/page", LoginRequired(zap.NewNop()), handler)
	return r, store
}

func loggedInRequest(t *testing.T, store services.SessionStore) *http.Request {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), "sid", &models.SessionData{
		User: &models.AuthResponse{Token: "tok", Username: "alice"},
	}))
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "sid"})
	return req
}

var expiredLocation = LogoutPath + "?message=" + url.QueryEscape(services.SessionExpiredMessage)

func TestLoginRequiredRedirectsAnonymous(t *testing.T) {
	called := false
	r, _ := newGatedRouter(t, func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.False(t, called)
}

func TestLoginRequiredPassesThrough(t *testing.T) {
	r, store := newGatedRouter(t, func(c *gin.Context) {
		c.Header("X-Page", "chat")
		c.String(http.StatusCreated, "hello")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loggedInRequest(t, store))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "chat", w.Header().Get("X-Page"))
	assert.Equal(t, "hello", w.Body.String())
}

func TestLoginRequiredReplacesResponseOnExpiry(t *testing.T) {
	r, store := newGatedRouter(t, func(c *gin.Context) {
		services.MarkAuthExpired(c.Request.Context())
		c.Header("X-Page", "chat")
		c.String(http.StatusOK, "stale page")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loggedInRequest(t, store))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, expiredLocation, w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("X-Page"))
	assert.NotContains(t, w.Body.String(), "stale page")
}

func TestLoginRequiredExpiryForHtmx(t *testing.T) {
	r, store := newGatedRouter(t, func(c *gin.Context) {
		services.MarkAuthExpired(c.Request.Context())
		c.String(http.StatusOK, "fragment")
	})

	req := loggedInRequest(t, store)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, expiredLocation, w.Header().Get("HX-Redirect"))
	assert.Empty(t, w.Body.String())
}

func TestLoginRequiredFlushCommits(t *testing.T) {
	r, store := newGatedRouter(t, func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		_, _ = c.Writer.WriteString("event: content\ndata: hi\n\n")
		c.Writer.Flush()
		services.MarkAuthExpired(c.Request.Context())
		_, _ = c.Writer.WriteString("event: end_of_response\ndata: \n\n")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loggedInRequest(t, store))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "event: content\ndata: hi\n\nevent: end_of_response\ndata: \n\n", w.Body.String())
	assert.True(t, w.Flushed)
}

func TestLoginRequiredEmptyHandlerCommitsStatus(t *testing.T) {
	r, store := newGatedRouter(t, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loggedInRequest(t, store))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRedirect(t *testing.T) {
	r := gin.New()
	r.GET("/go", func(c *gin.Context) { Redirect(c, "/login") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/go", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))
}
