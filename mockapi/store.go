package mockapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"front/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Account is a user together with its password. Passwords never leave the
// mock backend.
type Account struct {
	models.User
	Password string
}

type Store interface {
	FindAccount(ctx context.Context, username string) (*Account, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*Account, error)
	CreateUser(ctx context.Context, input models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, input models.UserInput) error
	DeleteUser(ctx context.Context, id string) error

	CreateConversation(ctx context.Context, title string) (*models.Conversation, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	RenameConversation(ctx context.Context, id, title string) error
	AppendMessage(ctx context.Context, conversationID string, msg models.ChatMessage) error
	DeleteConversation(ctx context.Context, id string) error
	DeleteAllConversations(ctx context.Context) error

	ListKnowledgeBases(ctx context.Context) ([]models.KnowledgeBase, error)
	GetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error)
	CreateKnowledgeBase(ctx context.Context, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error)
	UpdateKnowledgeBase(ctx context.Context, id string, input models.KnowledgeBaseInput) error
	DeleteKnowledgeBase(ctx context.Context, id string) error

	Close() error
}

const seedPassword = "1"

func seedAccounts() []Account {
	account := func(id, username string, roles ...string) Account {
		return Account{
			User: models.User{
				ID:        id,
				Username:  username,
				Email:     username + "@example.com",
				Roles:     roles,
				CreatedAt: "2024-01-01T00:00:00Z",
			},
			Password: seedPassword,
		}
	}
	return []Account{
		account("user001", "alice", models.RoleAdmin, models.RoleUser),
		account("user002", "bob", models.RoleUser),
		account("user003", "charlie", models.RoleUser),
		account("user004", "admin", models.RoleAdmin, models.RoleUser),
		account("user005", "jane.smith", models.RoleUser),
	}
}

func seedKnowledgeBases() []models.KnowledgeBase {
	return []models.KnowledgeBase{
		{ID: "base001", Title: "text 1 title", Content: "text 1 body", CreatedAt: "2024-01-15T08:30:00Z"},
		{ID: "base002", Title: "text 2 title", Content: "text 2 body", CreatedAt: "2024-01-15T08:30:00Z"},
	}
}

var seedLLMs = []models.LLM{
	{ID: "gpt-4", Name: "GPT-4", Type: "remote", Description: "OpenAI GPT-4 model", CreatedAt: "2024-03-15T10:00:00Z"},
	{ID: "claude-3", Name: "Claude 3", Type: "remote", Description: "Anthropic Claude 3 model", CreatedAt: "2024-03-15T10:00:00Z"},
	{ID: "gemini", Name: "Gemini", Type: "remote", Description: "Google Gemini model", CreatedAt: "2024-03-15T10:00:00Z"},
}

// timestamp returns the current time in ISO 8601.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func newID() string {
	return uuid.NewString()
}

// MemoryStore keeps everything in process. It starts with the seed data.
type MemoryStore struct {
	mu             sync.RWMutex
	accounts       []Account
	conversations  []*models.Conversation
	knowledgeBases []models.KnowledgeBase
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:       seedAccounts(),
		knowledgeBases: seedKnowledgeBases(),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) FindAccount(_ context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Username == username {
			acct := a
			return &acct, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.User)
	}
	return users, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.accountIndex(id); i >= 0 {
		acct := s.accounts[i]
		return &acct, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, input models.UserInput) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(input.Username, "") {
		return nil, ErrDuplicate
	}
	acct := Account{
		User: models.User{
			ID:        newID(),
			Username:  input.Username,
			Email:     input.Email,
			Roles:     input.Roles,
			CreatedAt: timestamp(),
		},
		Password: input.Password,
	}
	s.accounts = append(s.accounts, acct)
	return &acct.User, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, input models.UserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	if s.usernameTaken(input.Username, id) {
		return ErrDuplicate
	}
	acct := &s.accounts[i]
	acct.Username = input.Username
	acct.Email = input.Email
	acct.Roles = input.Roles
	if input.Password != "" {
		acct.Password = input.Password
	}
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	return nil
}

func (s *MemoryStore) accountIndex(id string) int {
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) usernameTaken(username, exceptID string) bool {
	for _, a := range s.accounts {
		if a.Username == username && a.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateConversation(_ context.Context, title string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := timestamp()
	conv := &models.Conversation{
		ConversationID: newID(),
		Title:          title,
		Messages:       []models.ChatMessage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.conversations = append(s.conversations, conv)
	out := *conv
	return &out, nil
}

func (s *MemoryStore) ListConversations(_ context.Context) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	convs := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		conv := *c
		conv.Messages = nil
		convs = append(convs, conv)
	}
	return convs, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.conversationIndex(id); i >= 0 {
		conv := *s.conversations[i]
		conv.Messages = append([]models.ChatMessage{}, conv.Messages...)
		return &conv, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RenameConversation(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.conversationIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.conversations[i].Title = title
	s.conversations[i].UpdatedAt = timestamp()
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, conversationID string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.conversationIndex(conversationID)
	if i < 0 {
		return ErrNotFound
	}
	s.conversations[i].Messages = append(s.conversations[i].Messages, msg)
	s.conversations[i].UpdatedAt = msg.Timestamp
	return nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.conversationIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	return nil
}

func (s *MemoryStore) DeleteAllConversations(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
	return nil
}

func (s *MemoryStore) conversationIndex(id string) int {
	for i, c := range s.conversations {
		if c.ConversationID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) ListKnowledgeBases(_ context.Context) ([]models.KnowledgeBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.KnowledgeBase{}, s.knowledgeBases...), nil
}

func (s *MemoryStore) GetKnowledgeBase(_ context.Context, id string) (*models.KnowledgeBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.knowledgeBaseIndex(id); i >= 0 {
		kb := s.knowledgeBases[i]
		return &kb, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateKnowledgeBase(_ context.Context, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kb := models.KnowledgeBase{
		ID:        newID(),
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: timestamp(),
	}
	s.knowledgeBases = append(s.knowledgeBases, kb)
	return &kb, nil
}

func (s *MemoryStore) UpdateKnowledgeBase(_ context.Context, id string, input models.KnowledgeBaseInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.knowledgeBaseIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.knowledgeBases[i].Title = input.Title
	s.knowledgeBases[i].Content = input.Content
	return nil
}

func (s *MemoryStore) DeleteKnowledgeBase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.knowledgeBaseIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.knowledgeBases = append(s.knowledgeBases[:i], s.knowledgeBases[i+1:]...)
	return nil
}

func (s *MemoryStore) knowledgeBaseIndex(id string) int {
	for i, kb := range s.knowledgeBases {
		if kb.ID == id {
			return i
		}
	}
	return -1
}
