package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"front/models"
)

// SessionExpiredMessage replaces the upstream message of any 401 received on
// a call made with a user token.
const SessionExpiredMessage = "Your session expired, please login again."

const upstreamErrorCode = "UPSTREAM_ERROR"

// AssistantClient talks to the assistant API. Every call returns either its
// success payload or an error; upstream failures are *models.ErrorResponse,
// anything else is a transport failure.
type AssistantClient struct {
	rest    *resty.Client
	baseURL string
	logger  *zap.Logger
}

func NewAssistantClient(baseURL string, logger *zap.Logger) *AssistantClient {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")

	return &AssistantClient{
		rest:    rest,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *AssistantClient) BaseURL() string {
	return c.baseURL
}

// Close drops idle connections. Requests already running are not affected.
func (c *AssistantClient) Close() {
	c.rest.GetClient().CloseIdleConnections()
}

type call struct {
	method string
	path   string
	params map[string]string
	token  string
	body   interface{}
}

func send[T any](ctx context.Context, c *AssistantClient, in call) (*T, error) {
	req := c.rest.R().SetContext(ctx)
	if in.token != "" {
		req.SetAuthToken(in.token)
	}
	if in.params != nil {
		req.SetPathParams(in.params)
	}
	if in.body != nil {
		req.SetBody(in.body)
	}

	resp, err := req.Execute(in.method, in.path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}

	var out T
	if err := c.decode(ctx, resp.StatusCode(), resp.Body(), &out, in.token != ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AssistantClient) decode(ctx context.Context, status int, body []byte, out interface{}, authenticated bool) error {
	var envelope struct {
		ErrorCode *string `json:"error-code"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.ErrorCode != nil {
		errResp := &models.ErrorResponse{}
		if err := json.Unmarshal(body, errResp); err != nil {
			return fmt.Errorf("failed to decode upstream error: %w", err)
		}
		errResp.StatusCode = status
		return c.normalize(ctx, errResp, authenticated)
	}

	if status < 200 || status >= 300 {
		return c.normalize(ctx, &models.ErrorResponse{
			ErrorCode:  upstreamErrorCode,
			Message:    http.StatusText(status),
			StatusCode: status,
		}, authenticated)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

// normalize only rewrites a 401 into the expired-session message for calls
// that carried a token. A 401 from the login call itself means bad
// credentials, and the login form shows the upstream message.
func (c *AssistantClient) normalize(ctx context.Context, errResp *models.ErrorResponse, authenticated bool) error {
	if errResp.StatusCode == http.StatusUnauthorized && authenticated {
		errResp.Message = SessionExpiredMessage
		MarkAuthExpired(ctx)
	}
	c.logger.Debug("upstream returned an error",
		zap.String("error_code", errResp.ErrorCode),
		zap.Int("status", errResp.StatusCode),
		zap.String("message", errResp.Message),
	)
	return errResp
}

// AsErrorResponse reports whether err is an upstream error response.
func AsErrorResponse(err error) (*models.ErrorResponse, bool) {
	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp, true
	}
	return nil, false
}

func (c *AssistantClient) Authenticate(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	c.logger.Debug("authenticating user", zap.String("username", username))
	return send[models.AuthResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/assistant/auth",
		body: map[string]string{
			"username": username,
			"password": password,
		},
	})
}

func (c *AssistantClient) GetLLMs(ctx context.Context, token string) (*models.LLMsResponse, error) {
	return send[models.LLMsResponse](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/llms",
		token:  token,
	})
}

func (c *AssistantClient) CreateConversation(ctx context.Context, token string) (*models.NewConversationResponse, error) {
	conv, err := send[models.NewConversationResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/assistant/conversations",
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("created conversation", zap.String("conversation_id", conv.ConversationID))
	return conv, nil
}

func (c *AssistantClient) GetConversations(ctx context.Context, token string) (*models.ConversationsResponse, error) {
	return send[models.ConversationsResponse](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/conversations",
		token:  token,
	})
}

func (c *AssistantClient) GetConversation(ctx context.Context, conversationID, token string) (*models.Conversation, error) {
	return send[models.Conversation](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/conversations/{id}",
		params: map[string]string{"id": conversationID},
		token:  token,
	})
}

func (c *AssistantClient) DeleteConversation(ctx context.Context, conversationID, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodDelete,
		path:   "/assistant/conversations/{id}",
		params: map[string]string{"id": conversationID},
		token:  token,
	})
}

func (c *AssistantClient) DeleteAllConversations(ctx context.Context, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodDelete,
		path:   "/assistant/conversations/delete/all",
		token:  token,
	})
}

func (c *AssistantClient) GetUsers(ctx context.Context, token string) (*models.UsersResponse, error) {
	return send[models.UsersResponse](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/users",
		token:  token,
	})
}

func (c *AssistantClient) GetUser(ctx context.Context, userID, token string) (*models.User, error) {
	return send[models.User](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/users/{id}",
		params: map[string]string{"id": userID},
		token:  token,
	})
}

func (c *AssistantClient) DeleteUser(ctx context.Context, userID, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodDelete,
		path:   "/assistant/users/{id}",
		params: map[string]string{"id": userID},
		token:  token,
	})
}

func (c *AssistantClient) EditUser(ctx context.Context, userID string, input models.UserInput, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodPut,
		path:   "/assistant/users/{id}",
		params: map[string]string{"id": userID},
		token:  token,
		body:   input,
	})
}

func (c *AssistantClient) CreateUser(ctx context.Context, input models.UserInput, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/assistant/users",
		token:  token,
		body:   input,
	})
}

func (c *AssistantClient) GetKnowledgeBases(ctx context.Context, token string) (*models.KnowledgeBasesResponse, error) {
	return send[models.KnowledgeBasesResponse](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/knowledge-base",
		token:  token,
	})
}

func (c *AssistantClient) GetKnowledgeBase(ctx context.Context, kbID, token string) (*models.KnowledgeBase, error) {
	return send[models.KnowledgeBase](ctx, c, call{
		method: http.MethodGet,
		path:   "/assistant/knowledge-base/{id}",
		params: map[string]string{"id": kbID},
		token:  token,
	})
}

func (c *AssistantClient) DeleteKnowledgeBase(ctx context.Context, kbID, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodDelete,
		path:   "/assistant/knowledge-base/{id}",
		params: map[string]string{"id": kbID},
		token:  token,
	})
}

func (c *AssistantClient) EditKnowledgeBase(ctx context.Context, kbID string, input models.KnowledgeBaseInput, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodPut,
		path:   "/assistant/knowledge-base/{id}",
		params: map[string]string{"id": kbID},
		token:  token,
		body:   input,
	})
}

func (c *AssistantClient) CreateKnowledgeBase(ctx context.Context, input models.KnowledgeBaseInput, token string) (*models.GenericActionResponse, error) {
	return send[models.GenericActionResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/assistant/knowledge-base",
		token:  token,
		body:   input,
	})
}
