package models

type LLM struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type LLMsResponse struct {
	LLMs []LLM `json:"llms"`
}

// LLMOption is one entry of the model selector.
type LLMOption struct {
	ID       string
	Name     string
	Selected bool
}
