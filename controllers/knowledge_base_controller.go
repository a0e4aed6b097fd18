package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/models"
	"front/services"
)

func (ctl *Controller) KnowledgeBaseSettings(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionKnowledgeBase)

	kbs, err := ctl.clients.Current().GetKnowledgeBases(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to get knowledge bases", err)
		renderSettings(c, page.fail(errorMessage(err, "Failed to load knowledge bases. Please try again later.")))
		return
	}
	page.KnowledgeBases = sortKnowledgeBases(kbs.KnowledgeBases)
	renderSettings(c, page)
}

// refreshKnowledgeBases re-renders the list after a mutation. refreshFailed
// replaces the page's success message when the list cannot be fetched.
func (ctl *Controller) refreshKnowledgeBases(c *gin.Context, page *settingsPage, refreshFailed string) {
	_, user := currentUser(c)
	kbs, err := ctl.clients.Current().GetKnowledgeBases(c.Request.Context(), user.Token)
	if err != nil {
		ctl.logFailure("failed to refresh knowledge bases", err)
		page.Successes = nil
		renderSettings(c, page.fail(errorMessage(err, refreshFailed)))
		return
	}
	page.KnowledgeBases = sortKnowledgeBases(kbs.KnowledgeBases)
	renderSettings(c, page)
}

func (ctl *Controller) DeleteKnowledgeBase(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionKnowledgeBase)
	id := c.Param("id")

	if _, err := ctl.clients.Current().DeleteKnowledgeBase(c.Request.Context(), id, user.Token); err != nil {
		ctl.logFailure("failed to delete knowledge base", err, zap.String("kb_id", id))
		renderSettings(c, page.fail(errorMessage(err, "Failed to delete knowledge base: "+err.Error())))
		return
	}
	ctl.refreshKnowledgeBases(c, page.succeed("Knowledge base deleted successfully"),
		"Knowledge base deleted but failed to refresh the list")
}

func (ctl *Controller) EditKnowledgeBaseForm(c *gin.Context) {
	_, user := currentUser(c)
	id := c.Param("id")

	kb, err := ctl.clients.Current().GetKnowledgeBase(c.Request.Context(), id, user.Token)
	if err != nil {
		ctl.logFailure("failed to get knowledge base", err, zap.String("kb_id", id))
		status := http.StatusInternalServerError
		if errResp, ok := services.AsErrorResponse(err); ok && errResp.StatusCode != 0 {
			status = errResp.StatusCode
		}
		c.JSON(status, gin.H{"status": "error", "message": errorMessage(err, "Failed to fetch knowledge base")})
		return
	}
	c.HTML(http.StatusOK, "knowledge_base_modal.html", knowledgeBaseModal{KnowledgeBase: kb})
}

func (ctl *Controller) NewKnowledgeBaseForm(c *gin.Context) {
	c.HTML(http.StatusOK, "knowledge_base_modal.html", knowledgeBaseModal{})
}

func knowledgeBaseInputFromForm(c *gin.Context) models.KnowledgeBaseInput {
	return models.KnowledgeBaseInput{
		Title:   strings.TrimSpace(c.PostForm("title")),
		Content: strings.TrimSpace(c.PostForm("content")),
	}
}

func (ctl *Controller) EditKnowledgeBase(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionKnowledgeBase)
	id := c.Param("id")

	input := knowledgeBaseInputFromForm(c)
	if input.Title == "" || input.Content == "" {
		ctl.refreshKnowledgeBases(c, page.fail("Title and content are required"), "Failed to refresh knowledge bases list")
		return
	}

	if _, err := ctl.clients.Current().EditKnowledgeBase(c.Request.Context(), id, input, user.Token); err != nil {
		ctl.logFailure("failed to edit knowledge base", err, zap.String("kb_id", id))
		renderSettings(c, page.fail(errorMessage(err, "Failed to update knowledge base: "+err.Error())))
		return
	}
	ctl.refreshKnowledgeBases(c, page.succeed("Knowledge base updated successfully"),
		"Knowledge base updated but failed to refresh the list")
}

func (ctl *Controller) CreateKnowledgeBase(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionKnowledgeBase)

	input := knowledgeBaseInputFromForm(c)
	if input.Title == "" || input.Content == "" {
		ctl.refreshKnowledgeBases(c, page.fail("Title and content are required"), "Failed to refresh knowledge bases list")
		return
	}

	if _, err := ctl.clients.Current().CreateKnowledgeBase(c.Request.Context(), input, user.Token); err != nil {
		ctl.logFailure("failed to create knowledge base", err)
		renderSettings(c, page.fail(errorMessage(err, "Failed to create knowledge base: "+err.Error())))
		return
	}
	ctl.refreshKnowledgeBases(c, page.succeed("Knowledge base created successfully"),
		"Knowledge base created but failed to refresh the list")
}

// BulkCreateKnowledgeBases imports a CSV upload, one create call per row.
// Row failures are collected and reported next to the success count.
func (ctl *Controller) BulkCreateKnowledgeBases(c *gin.Context) {
	_, user := currentUser(c)
	page := newSettingsPage(user, sectionKnowledgeBase)

	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		renderSettings(c, page.fail("No file uploaded"))
		return
	}
	if fileHeader.Size == 0 {
		renderSettings(c, page.fail("Uploaded file is empty"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctl.logger.Error("failed to open uploaded file", zap.Error(err))
		renderSettings(c, page.fail("Failed to process bulk upload: "+err.Error()))
		return
	}
	defer file.Close()

	rows, err := services.ParseKnowledgeBaseCSV(file)
	if err != nil {
		ctl.logger.Warn("rejected knowledge base upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
		if errors.Is(err, services.ErrEmptyUpload) {
			renderSettings(c, page.fail("Uploaded file is empty"))
			return
		}
		renderSettings(c, page.fail(err.Error()))
		return
	}

	client := ctl.clients.Current()
	created := 0
	for _, row := range rows {
		if _, err := client.CreateKnowledgeBase(c.Request.Context(), row, user.Token); err != nil {
			ctl.logFailure("failed to create knowledge base from upload", err, zap.String("title", row.Title))
			page.fail(fmt.Sprintf("Failed to create knowledge base '%s': %s", row.Title, errorMessage(err, err.Error())))
			continue
		}
		created++
	}
	if created > 0 {
		page.succeed(fmt.Sprintf("Successfully created %d knowledge base(s)", created))
	}

	ctl.logger.Info("knowledge base upload processed",
		zap.String("filename", fileHeader.Filename),
		zap.Int("rows", len(rows)),
		zap.Int("created", created),
	)
	ctl.refreshKnowledgeBases(c, page, "Failed to refresh knowledge bases list")
}
