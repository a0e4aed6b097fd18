package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"front/models"
	"front/services"
)

const sessionKey = "session"

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session is the per-request view of the server-side session. Changes are
// only persisted by Save.
type Session struct {
	id    string
	data  models.SessionData
	store services.SessionStore
	opts  SessionOptions
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) User() *models.AuthResponse {
	return s.data.User
}

func (s *Session) SetUser(user *models.AuthResponse) {
	s.data.User = user
}

func (s *Session) SelectedLLM() string {
	return s.data.SelectedLLM
}

func (s *Session) SetSelectedLLM(id string) {
	s.data.SelectedLLM = id
}

func (s *Session) Save(c *gin.Context) error {
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if err := s.store.Save(c.Request.Context(), s.id, &s.data); err != nil {
		return err
	}
	s.setCookie(c, s.id, int(s.opts.TTL.Seconds()))
	return nil
}

func (s *Session) Clear(c *gin.Context) error {
	var err error
	if s.id != "" {
		err = s.store.Delete(c.Request.Context(), s.id)
	}
	s.id = ""
	s.data = models.SessionData{}
	s.setCookie(c, "", -1)
	return err
}

func (s *Session) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, value, maxAge, "/", "", s.opts.Secure, true)
}

// Sessions loads the session named by the cookie, if any, and exposes it to
// handlers through CurrentSession.
func Sessions(store services.SessionStore, opts SessionOptions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &Session{store: store, opts: opts}

		if id, err := c.Cookie(opts.CookieName); err == nil && id != "" {
			data, err := store.Load(c.Request.Context(), id)
			switch {
			case err == nil:
				sess.id = id
				sess.data = *data
			case errors.Is(err, services.ErrSessionNotFound):
			default:
				logger.Warn("failed to load session", zap.Error(err))
			}
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func CurrentSession(c *gin.Context) *Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*Session); ok {
			return sess
		}
	}
	return nil
}
