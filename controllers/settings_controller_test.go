package controllers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRedirectsToChatHistory(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.get("/settings", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/settings/chat-history", w.Header().Get("Location"))
}

func TestChatHistoryDeleteFlow(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")
	id := startConversation(t, h, cookie)

	w := h.get("/settings/chat-history", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/conversation/"+id)
	assert.NotContains(t, w.Body.String(), "/settings/users")

	w = h.do(request{method: http.MethodDelete, path: "/api/conversations/" + id, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Conversation deleted successfully")
	assert.NotContains(t, w.Body.String(), "/conversation/"+id)

	w = h.do(request{method: http.MethodDelete, path: "/api/conversations/" + id, cookie: cookie})
	assert.Contains(t, w.Body.String(), "Conversation not found")
}

func TestDeleteAllConversations(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")
	startConversation(t, h, cookie)

	w := h.do(request{method: http.MethodDelete, path: "/api/conversations/delete/all", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All conversations deleted successfully")
}

func TestConnectionSettingsAdminOnly(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.get("/settings/connection-settings", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied. Admin privileges required.")

	w = h.postForm("/api/config/connection-endpoint", url.Values{"endpoint": {"http://elsewhere:1"}}, cookie)
	assert.Contains(t, w.Body.String(), "Admin privileges required")

	endpoint, err := h.connections.Endpoint()
	require.NoError(t, err)
	assert.Empty(t, endpoint)
}

func TestUpdateConnectionEndpoint(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("alice")
	before := h.clients.Current()

	w := h.postForm("/api/config/connection-endpoint", url.Values{"endpoint": {" " + h.upstream.URL + " "}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Connection settings saved successfully")
	assert.Contains(t, w.Body.String(), `value="`+h.upstream.URL+`"`)

	endpoint, err := h.connections.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, h.upstream.URL, endpoint)
	assert.NotSame(t, before, h.clients.Current())

	w = h.get("/api/config/connection-endpoint", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, h.upstream.URL, w.Body.String())

	// the new client still reaches the backend
	w = h.get("/settings/connection-settings", cookie)
	assert.Contains(t, w.Body.String(), `value="`+h.upstream.URL+`"`)
}
