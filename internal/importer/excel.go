// Package importer parses uploaded Excel spreadsheets of sources for
// bulk import.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/northbrief/curator/internal/models"
)

// Column indices for the Excel spreadsheet (0-based).
const (
	colName = 0 // Column A
	colURL  = 1 // Column B

	headerRowIndex = 1 // Excel rows are 1-based, header is row 1
)

// SourceRow represents a parsed row from the Excel spreadsheet.
type SourceRow struct {
	Row  int // Excel row number (for error reporting)
	Name string
	URL  string
}

// ImportError represents a validation error for a specific row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ValidateRow validates a single row and returns an error message or empty string.
func ValidateRow(row SourceRow) string {
	if strings.TrimSpace(row.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(row.URL) == "" {
		return "url is required"
	}

	// URL must be http or https
	if !strings.HasPrefix(row.URL, "http://") && !strings.HasPrefix(row.URL, "https://") {
		return "url must start with http:// or https://"
	}

	return ""
}

// ParseExcelFile reads an uploaded spreadsheet and returns the valid
// rows plus per-row validation errors. The header row is skipped;
// fully empty rows are ignored.
func ParseExcelFile(r io.Reader) ([]SourceRow, []ImportError) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, []ImportError{{Row: 0, Error: fmt.Sprintf("open spreadsheet: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, []ImportError{{Row: 0, Error: "spreadsheet has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, []ImportError{{Row: 0, Error: fmt.Sprintf("read rows: %v", err)}}
	}

	var (
		parsed       []SourceRow
		importErrors []ImportError
	)

	for i, cells := range rows {
		rowNum := i + 1
		if rowNum == headerRowIndex {
			continue
		}
		if isEmptyRow(cells) {
			continue
		}

		row := SourceRow{
			Row:  rowNum,
			Name: cellAt(cells, colName),
			URL:  cellAt(cells, colURL),
		}

		if msg := ValidateRow(row); msg != "" {
			importErrors = append(importErrors, ImportError{Row: rowNum, Error: msg})
			continue
		}
		parsed = append(parsed, row)
	}

	return parsed, importErrors
}

// ToSource converts a validated row into a source model.
func ToSource(row SourceRow) *models.Source {
	name := strings.TrimSpace(row.Name)
	return &models.Source{
		URL:  strings.TrimSpace(row.URL),
		Name: &name,
	}
}

func cellAt(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
