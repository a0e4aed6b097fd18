package controllers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"front/models"
)

const (
	sectionChatHistory   = "chat-history"
	sectionConnection    = "connection-settings"
	sectionUsers         = "users"
	sectionKnowledgeBase = "knowledge-base"
)

type loginPage struct {
	Message  string
	Username string
}

type chatPage struct {
	User          *models.AuthResponse
	LLMOptions    []models.LLMOption
	Conversations []models.Conversation
	Conversation  *models.Conversation
	Errors        []string
	Successes     []string
}

type settingsPage struct {
	User      *models.AuthResponse
	Section   string
	Errors    []string
	Successes []string
	Denied    bool
	LoadError string

	Conversations  []models.Conversation
	Endpoint       string
	Users          []models.User
	KnowledgeBases []models.KnowledgeBase
}

func (p *settingsPage) fail(msg string) *settingsPage {
	p.Errors = append(p.Errors, msg)
	return p
}

func (p *settingsPage) succeed(msg string) *settingsPage {
	p.Successes = append(p.Successes, msg)
	return p
}

type userModal struct {
	User *models.User
	Self bool
}

type knowledgeBaseModal struct {
	KnowledgeBase *models.KnowledgeBase
}

func renderSettings(c *gin.Context, page *settingsPage) {
	c.HTML(http.StatusOK, "settings.html", page)
}

func newSettingsPage(user *models.AuthResponse, section string) *settingsPage {
	return &settingsPage{User: user, Section: section}
}

func sortKnowledgeBases(kbs []models.KnowledgeBase) []models.KnowledgeBase {
	sorted := append([]models.KnowledgeBase(nil), kbs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})
	return sorted
}
