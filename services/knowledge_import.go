package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"front/models"
)

var ErrEmptyUpload = errors.New("uploaded file is empty")

var requiredKnowledgeBaseColumns = []string{"Title", "Content"}

// ParseKnowledgeBaseCSV reads a CSV file with a header row containing Title
// and Content columns. A missing column rejects the whole file.
func ParseKnowledgeBaseCSV(r io.Reader) ([]models.KnowledgeBaseInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		// Excel likes to prepend a byte order mark.
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		index[name] = i
	}

	var missing []string
	for _, col := range requiredKnowledgeBaseColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV file is missing required column(s): %s", strings.Join(missing, ", "))
	}

	titleIdx, contentIdx := index["Title"], index["Content"]
	var rows []models.KnowledgeBaseInput
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, models.KnowledgeBaseInput{
			Title:   field(record, titleIdx),
			Content: field(record, contentIdx),
		})
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
