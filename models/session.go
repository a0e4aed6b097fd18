package models

// SessionData is the server-side state behind the session cookie.
type SessionData struct {
	User        *AuthResponse `json:"user,omitempty"`
	SelectedLLM string        `json:"selected-llm,omitempty"`
}
