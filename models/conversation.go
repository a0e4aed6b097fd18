package models

const (
	SenderTypeUser = "user"
	SenderTypeBot  = "bot"
)

type ChatMessage struct {
	MessageID  string `json:"messageId"`
	Sender     string `json:"sender"`
	SenderType string `json:"senderType"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

// Conversation carries Messages only in the detail view.
type Conversation struct {
	ConversationID string        `json:"conversationId"`
	Title          string        `json:"title"`
	Messages       []ChatMessage `json:"messages,omitempty"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
}

type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type NewConversationResponse struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// ConversationRequest is the body of the streaming chat call.
type ConversationRequest struct {
	ConversationID string `json:"conversationId"`
	LLMID          string `json:"llmId"`
	Query          string `json:"query"`
}
