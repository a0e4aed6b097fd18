package controllers_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"front/config"
	"front/controllers"
	"front/middlewares"
	"front/mockapi"
	"front/models"
	"front/routes"
	"front/services"
)

const cookieName = "session_"

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t           *testing.T
	router      *gin.Engine
	upstream    *httptest.Server
	sessions    services.SessionStore
	connections *config.ConnectionStore
	clients     *services.ClientHolder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mock := mockapi.NewServer(mockapi.NewMemoryStore(), nil, mockapi.NewCannedResponder(0), zap.NewNop())
	upstream := httptest.NewServer(mock.Router())
	t.Cleanup(upstream.Close)

	connections, err := config.NewConnectionStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	clients, err := services.NewClientHolder(connections, upstream.URL, zap.NewNop())
	require.NoError(t, err)

	sessions := services.NewMemorySessionStore(time.Hour)
	router, err := routes.SetupRouter(routes.Deps{
		Controller: controllers.NewController(clients, connections, zap.NewNop()),
		Sessions:   sessions,
		Session:    middlewares.SessionOptions{CookieName: cookieName, TTL: time.Hour},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	return &harness{
		t:           t,
		router:      router,
		upstream:    upstream,
		sessions:    sessions,
		connections: connections,
		clients:     clients,
	}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	cookie      *http.Cookie
	htmx        bool
}

func (h *harness) do(r request) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	if r.htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return h.do(request{method: http.MethodGet, path: path, cookie: cookie})
}

func (h *harness) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	return h.do(request{
		method:      http.MethodPost,
		path:        path,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		cookie:      cookie,
	})
}

func (h *harness) postJSON(path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return h.do(request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewBufferString(body),
		contentType: "application/json",
		cookie:      cookie,
	})
}

// login goes through the login form and returns the session cookie.
func (h *harness) login(username string) *http.Cookie {
	h.t.Helper()
	w := h.postForm("/api/login", url.Values{"username": {username}, "password": {"1"}}, nil)
	require.Equal(h.t, http.StatusSeeOther, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	h.t.Fatalf("login for %s did not set a session cookie", username)
	return nil
}

// session stores a session directly, bypassing the upstream login.
func (h *harness) session(data *models.SessionData) *http.Cookie {
	h.t.Helper()
	require.NoError(h.t, h.sessions.Save(context.Background(), "sid-"+data.User.Username, data))
	return &http.Cookie{Name: cookieName, Value: "sid-" + data.User.Username}
}

func (h *harness) selectLLM(cookie *http.Cookie, model string) {
	h.t.Helper()
	w := h.postJSON("/api/set-llm", `{"model":"`+model+`"}`, cookie)
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
}
