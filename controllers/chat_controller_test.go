package controllers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"front/models"
)

func TestHomeSelectsFirstLLM(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.get("/", cookie)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="llm-selector"`)
	assert.Contains(t, body, `<option value="gpt-4" selected>`)
	assert.Contains(t, body, `<option value="claude-3">`)

	data, err := h.sessions.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", data.SelectedLLM)
}

func TestSetLLM(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.postJSON("/api/set-llm", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"No model provided"}`, w.Body.String())

	h.selectLLM(cookie, "claude-3")
	w = h.get("/", cookie)
	assert.Contains(t, w.Body.String(), `<option value="claude-3" selected>`)
}

func TestCreateChatValidation(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.postForm("/api/chat", url.Values{}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"No text provided"}`, w.Body.String())

	w = h.postForm("/api/chat", url.Values{"text": {"hello"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"No LLM selected"}`, w.Body.String())
}

func TestCreateChatStartsConversation(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")

	w := h.postForm("/api/chat", url.Values{"text": {"How are sales?"}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "How are sales?", resp["initial_text"])
	assert.NotEmpty(t, resp["conversation_id"])

	w = h.postForm("/api/chat?conversation_id="+resp["conversation_id"], url.Values{"text": {"more"}}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
}

func startConversation(t *testing.T, h *harness, cookie *http.Cookie) string {
	t.Helper()
	w := h.postForm("/api/chat", url.Values{"text": {"hi"}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["conversation_id"]
}

func TestStreamChatRelaysFrames(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")
	id := startConversation(t, h, cookie)

	w := h.get("/api/chat?conversation_id="+id+"&text="+url.QueryEscape("How are <b>sales</b>?"), cookie)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event:content\n"), body)
	assert.True(t, strings.HasSuffix(body, "event:end_of_response\ndata:\n\n"), body)
	assert.Contains(t, body, "Based on my analysis")

	page := h.get("/conversation/"+id, cookie)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `data-conversation-id="`+id+`"`)
	assert.Contains(t, page.Body.String(), "How are &lt;b&gt;sales&lt;/b&gt;?")
	assert.Contains(t, page.Body.String(), `class="message bot"`)
	// the stored reply keeps its markup like the live stream
	assert.Contains(t, page.Body.String(), "<strong>Overview:</strong>")
}

func TestStreamChatValidation(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.get("/api/chat?conversation_id=c1", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"No text provided"}`, w.Body.String())

	w = h.get("/api/chat?conversation_id=c1&text=hi", cookie)
	assert.JSONEq(t, `{"status":"error","message":"No LLM selected"}`, w.Body.String())

	h.selectLLM(cookie, "gpt-4")
	w = h.get("/api/chat?text=hi", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"No conversation ID provided"}`, w.Body.String())
}

func TestStreamChatUnknownConversationIsEmpty(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")

	w := h.get("/api/chat?conversation_id=missing&text=hi", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestConversationPageUnknownID(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")

	w := h.get("/conversation/missing", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Conversation not found")
}

func TestChatSocket(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("bob")
	h.selectLLM(cookie, "gpt-4")

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	header := http.Header{"Cookie": {cookie.Name + "=" + cookie.Value}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/chat/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"text": ""}))
	var status map[string]string
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "No text provided", status["message"])

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "hello"}))
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "success", status["status"])
	assert.NotEmpty(t, status["conversation_id"])

	var frames []string
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		frames = append(frames, string(data))
		if strings.HasPrefix(string(data), "event:end_of_response") {
			break
		}
	}
	require.Greater(t, len(frames), 1)
	for _, frame := range frames {
		assert.True(t, strings.HasSuffix(frame, "\n\n"), frame)
	}
}

func TestStreamChatForwardsFramesVerbatim(t *testing.T) {
	h := newHarness(t)
	h.pointAt(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant/chat", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		// chunk boundaries fall inside frames
		for _, chunk := range []string{"event: content\nda", "ta: one\n\nevent: content\ndata: two\n", "\nevent: content\ndata: three\n\n"} {
			_, _ = w.Write([]byte(chunk))
			w.(http.Flusher).Flush()
		}
	})

	w := h.get("/api/chat?conversation_id=c1&text=hi", streamingSession(h))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "event: content\ndata: one\n\nevent: content\ndata: two\n\nevent: content\ndata: three\n\n", w.Body.String())
}

// pointAt switches the front end to a hand-written upstream.
func (h *harness) pointAt(handler http.HandlerFunc) {
	h.t.Helper()
	upstream := httptest.NewServer(handler)
	h.t.Cleanup(upstream.Close)
	require.NoError(h.t, h.connections.UpdateEndpoint(upstream.URL))
	require.NoError(h.t, h.clients.Reload())
}

func streamingSession(h *harness) *http.Cookie {
	return h.session(&models.SessionData{
		User:        &models.AuthResponse{Token: "tok", Username: "bob"},
		SelectedLLM: "gpt-4",
	})
}

func TestStreamChatAbortsOnTruncatedFrame(t *testing.T) {
	h := newHarness(t)
	h.pointAt(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: content\ndata: one\n\nevent: content\ndata: tru"))
	})
	front := httptest.NewServer(h.router)
	defer front.Close()

	req, err := http.NewRequest(http.MethodGet, front.URL+"/api/chat?conversation_id=c1&text=hi", nil)
	require.NoError(t, err)
	req.AddCookie(streamingSession(h))
	resp, err := front.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	// the committed frame arrives, then the connection is cut
	assert.Equal(t, "event: content\ndata: one\n\n", string(body))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStreamChatAbortsBeforeFirstFrame(t *testing.T) {
	h := newHarness(t)
	h.pointAt(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: content\ndata: tru"))
	})
	front := httptest.NewServer(h.router)
	defer front.Close()

	req, err := http.NewRequest(http.MethodGet, front.URL+"/api/chat?conversation_id=c1&text=hi", nil)
	require.NoError(t, err)
	req.AddCookie(streamingSession(h))
	resp, err := front.Client().Do(req)
	if resp != nil {
		resp.Body.Close()
	}

	// nothing was committed, so not even a status line reaches the browser
	assert.ErrorIs(t, err, io.EOF)
}
