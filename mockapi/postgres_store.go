package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"front/models"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS mock_users (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL UNIQUE,
    email      TEXT NOT NULL,
    password   TEXT NOT NULL,
    roles      TEXT[] NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mock_conversations (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mock_messages (
    seq             BIGSERIAL PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL REFERENCES mock_conversations(id) ON DELETE CASCADE,
    sender          TEXT NOT NULL,
    sender_type     TEXT NOT NULL,
    content         TEXT NOT NULL,
    created_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mock_knowledge_bases (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// PostgresStore keeps the mock backend's data in Postgres so it survives
// restarts. The schema and seed rows are created on open.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, postgresURI string) (*PostgresStore, error) {
	connStr := postgresURI
	if !strings.Contains(postgresURI, "sslmode=") {
		if strings.Contains(postgresURI, "?") {
			connStr += "&sslmode=disable"
		} else if strings.Contains(postgresURI, "://") {
			connStr += "?sslmode=disable"
		} else {
			connStr += " sslmode=disable"
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for _, a := range seedAccounts() {
		_, err := s.db.ExecContext(ctx, `
            INSERT INTO mock_users (id, username, email, password, roles, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO NOTHING
        `, a.ID, a.Username, a.Email, a.Password, pq.StringArray(a.Roles), a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", a.Username, err)
		}
	}
	for _, kb := range seedKnowledgeBases() {
		_, err := s.db.ExecContext(ctx, `
            INSERT INTO mock_knowledge_bases (id, title, content, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING
        `, kb.ID, kb.Title, kb.Content, kb.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to seed knowledge base %s: %w", kb.ID, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// affected maps "no row touched" to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var roles pq.StringArray
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Password, &roles, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Roles = roles
	return &a, nil
}

const accountColumns = `id, username, email, password, roles, created_at`

func (s *PostgresStore) FindAccount(ctx context.Context, username string) (*Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM mock_users WHERE username = $1`, username))
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM mock_users WHERE id = $1`, id))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM mock_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, a.User)
	}
	return users, rows.Err()
}

func (s *PostgresStore) CreateUser(ctx context.Context, input models.UserInput) (*models.User, error) {
	user := models.User{
		ID:        newID(),
		Username:  input.Username,
		Email:     input.Email,
		Roles:     input.Roles,
		CreatedAt: timestamp(),
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO mock_users (id, username, email, password, roles, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Username, user.Email, input.Password, pq.StringArray(user.Roles), user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id string, input models.UserInput) error {
	var (
		res sql.Result
		err error
	)
	if input.Password != "" {
		res, err = s.db.ExecContext(ctx, `
            UPDATE mock_users SET username = $2, email = $3, roles = $4, password = $5 WHERE id = $1
        `, id, input.Username, input.Email, pq.StringArray(input.Roles), input.Password)
	} else {
		res, err = s.db.ExecContext(ctx, `
            UPDATE mock_users SET username = $2, email = $3, roles = $4 WHERE id = $1
        `, id, input.Username, input.Email, pq.StringArray(input.Roles))
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return affected(res, err)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM mock_users WHERE id = $1`, id))
}

func (s *PostgresStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := timestamp()
	conv := models.Conversation{
		ConversationID: newID(),
		Title:          title,
		Messages:       []models.ChatMessage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO mock_conversations (id, title, created_at, updated_at) VALUES ($1, $2, $3, $4)
    `, conv.ConversationID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, title, created_at, updated_at FROM mock_conversations ORDER BY created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ConversationID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRowContext(ctx, `
        SELECT id, title, created_at, updated_at FROM mock_conversations WHERE id = $1
    `, id).Scan(&c.ConversationID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, sender, sender_type, content, created_at
        FROM mock_messages WHERE conversation_id = $1 ORDER BY seq
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	c.Messages = []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.Sender, &m.SenderType, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	return &c, rows.Err()
}

func (s *PostgresStore) RenameConversation(ctx context.Context, id, title string) error {
	return affected(s.db.ExecContext(ctx, `
        UPDATE mock_conversations SET title = $2, updated_at = $3 WHERE id = $1
    `, id, title, timestamp()))
}

func (s *PostgresStore) AppendMessage(ctx context.Context, conversationID string, msg models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := affected(tx.ExecContext(ctx, `
        UPDATE mock_conversations SET updated_at = $2 WHERE id = $1
    `, conversationID, msg.Timestamp)); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO mock_messages (id, conversation_id, sender, sender_type, content, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, msg.MessageID, conversationID, msg.Sender, msg.SenderType, msg.Content, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM mock_conversations WHERE id = $1`, id))
}

func (s *PostgresStore) DeleteAllConversations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM mock_conversations`)
	return err
}

func (s *PostgresStore) ListKnowledgeBases(ctx context.Context) ([]models.KnowledgeBase, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, title, content, created_at FROM mock_knowledge_bases ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge bases: %w", err)
	}
	defer rows.Close()

	kbs := []models.KnowledgeBase{}
	for rows.Next() {
		var kb models.KnowledgeBase
		if err := rows.Scan(&kb.ID, &kb.Title, &kb.Content, &kb.CreatedAt); err != nil {
			return nil, err
		}
		kbs = append(kbs, kb)
	}
	return kbs, rows.Err()
}

func (s *PostgresStore) GetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error) {
	var kb models.KnowledgeBase
	err := s.db.QueryRowContext(ctx, `
        SELECT id, title, content, created_at FROM mock_knowledge_bases WHERE id = $1
    `, id).Scan(&kb.ID, &kb.Title, &kb.Content, &kb.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge base: %w", err)
	}
	return &kb, nil
}

func (s *PostgresStore) CreateKnowledgeBase(ctx context.Context, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error) {
	kb := models.KnowledgeBase{
		ID:        newID(),
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: timestamp(),
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO mock_knowledge_bases (id, title, content, created_at) VALUES ($1, $2, $3, $4)
    `, kb.ID, kb.Title, kb.Content, kb.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge base: %w", err)
	}
	return &kb, nil
}

func (s *PostgresStore) UpdateKnowledgeBase(ctx context.Context, id string, input models.KnowledgeBaseInput) error {
	return affected(s.db.ExecContext(ctx, `
        UPDATE mock_knowledge_bases SET title = $2, content = $3 WHERE id = $1
    `, id, input.Title, input.Content))
}

func (s *PostgresStore) DeleteKnowledgeBase(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM mock_knowledge_bases WHERE id = $1`, id))
}
