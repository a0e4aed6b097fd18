package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"front/models"
)

func TestParseKnowledgeBaseCSV(t *testing.T) {
	input := "\ufeffTitle,Content,Extra\n" +
		"  Refunds , Refunds take 5 days ,x\n" +
		"\"Shipping, EU\",\"Ships in 2 days\"\n"

	rows, err := ParseKnowledgeBaseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []models.KnowledgeBaseInput{
		{Title: "Refunds", Content: "Refunds take 5 days"},
		{Title: "Shipping, EU", Content: "Ships in 2 days"},
	}, rows)
}

func TestParseKnowledgeBaseCSVColumnsInAnyOrder(t *testing.T) {
	rows, err := ParseKnowledgeBaseCSV(strings.NewReader("Content,Title\nbody,head\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "head", rows[0].Title)
	assert.Equal(t, "body", rows[0].Content)
}

func TestParseKnowledgeBaseCSVMissingColumn(t *testing.T) {
	_, err := ParseKnowledgeBaseCSV(strings.NewReader("Title,Body\na,b\n"))
	require.Error(t, err)
	assert.Equal(t, "CSV file is missing required column(s): Content", err.Error())
}

func TestParseKnowledgeBaseCSVEmpty(t *testing.T) {
	_, err := ParseKnowledgeBaseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyUpload)
}
