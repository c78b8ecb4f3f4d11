package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/annolex/internal/document"
)

// CSVParser handles CSV files. Each data row becomes one line of
// "header: cell" pairs so cell values stay addressable by offset.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := strings.TrimSuffix(filename, ".csv")
	if len(records) == 0 {
		return &document.Content{Title: title}, nil
	}

	headers := records[0]
	var paragraphs []string
	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		paragraphs = append(paragraphs, line.String())
	}

	return &document.Content{
		Title: title,
		Text:  joinParagraphs(paragraphs),
	}, nil
}
