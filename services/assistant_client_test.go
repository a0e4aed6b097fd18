package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"front/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *AssistantClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAssistantClient(srv.URL, zap.NewNop())
}

func TestAuthenticateSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assistant/auth", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t1","id":"user001","email":"alice@example.com","username":"alice","roles":["ADMIN","USER"]}`))
	})

	user, err := client.Authenticate(context.Background(), "alice", "1")
	require.NoError(t, err)
	assert.Equal(t, "t1", user.Token)
	assert.True(t, user.IsAdmin())
}

func TestErrorCodeBodyCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error-code":"CONVERSATION_NOT_FOUND","message":"Conversation not found"}`))
	})

	_, err := client.GetConversation(context.Background(), "missing", "tok")
	errResp, ok := AsErrorResponse(err)
	require.True(t, ok)
	assert.Equal(t, "CONVERSATION_NOT_FOUND", errResp.ErrorCode)
	assert.Equal(t, "Conversation not found", errResp.Message)
	assert.Equal(t, http.StatusNotFound, errResp.StatusCode)
}

func TestUnauthorizedWithTokenMarksExpired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error-code":"UNAUTHORIZED","message":"Missing or invalid authorization token"}`))
	})

	ctx, state := WithAuthState(context.Background())
	_, err := client.GetConversations(ctx, "tok")

	errResp, ok := AsErrorResponse(err)
	require.True(t, ok)
	assert.Equal(t, SessionExpiredMessage, errResp.Message)
	assert.True(t, state.Expired())
	assert.True(t, AuthExpired(ctx))
}

func TestUnauthorizedLoginKeepsMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error-code":"UNAUTHORIZED","message":"Invalid password"}`))
	})

	ctx, state := WithAuthState(context.Background())
	_, err := client.Authenticate(ctx, "alice", "wrong")

	errResp, ok := AsErrorResponse(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid password", errResp.Message)
	assert.False(t, state.Expired())
}

func TestNonJSONFailureBecomesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.GetLLMs(context.Background(), "tok")
	errResp, ok := AsErrorResponse(err)
	require.True(t, ok)
	assert.Equal(t, "UPSTREAM_ERROR", errResp.ErrorCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), errResp.Message)
	assert.Equal(t, http.StatusBadGateway, errResp.StatusCode)
}

func TestTransportFailureIsNotErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewAssistantClient(url, zap.NewNop())
	_, err := client.GetLLMs(context.Background(), "tok")
	require.Error(t, err)
	_, ok := AsErrorResponse(err)
	assert.False(t, ok)
}

func TestEditUserSendsPathAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/assistant/users/user002", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"User edited successfully."}`))
	})

	resp, err := client.EditUser(context.Background(), "user002", models.UserInput{
		Username: "bob",
		Email:    "bob@example.com",
		Roles:    []string{models.RoleUser},
	}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "User edited successfully.", resp.Message)
}

func TestMarkAuthExpiredWithoutState(t *testing.T) {
	assert.NotPanics(t, func() { MarkAuthExpired(context.Background()) })
	assert.False(t, AuthExpired(context.Background()))
}
