package models

type KnowledgeBase struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type KnowledgeBasesResponse struct {
	KnowledgeBases []KnowledgeBase `json:"knowledgeBases"`
}

type KnowledgeBaseInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
