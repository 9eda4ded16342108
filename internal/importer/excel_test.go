package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/northbrief/curator/internal/importer"
)

func TestValidateRow(t *testing.T) {
	t.Helper()

	tests := []struct {
		name    string
		row     importer.SourceRow
		wantErr string
	}{
		{
			name:    "valid row",
			row:     importer.SourceRow{Row: 2, Name: "Test Source", URL: "https://example.com"},
			wantErr: "",
		},
		{
			name:    "missing name",
			row:     importer.SourceRow{Row: 2, Name: "", URL: "https://example.com"},
			wantErr: "name is required",
		},
		{
			name:    "missing url",
			row:     importer.SourceRow{Row: 2, Name: "Test Source", URL: ""},
			wantErr: "url is required",
		},
		{
			name:    "invalid url scheme",
			row:     importer.SourceRow{Row: 2, Name: "Test Source", URL: "ftp://example.com"},
			wantErr: "url must start with http:// or https://",
		},
		{
			name:    "whitespace only name",
			row:     importer.SourceRow{Row: 2, Name: "   ", URL: "https://example.com"},
			wantErr: "name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := importer.ValidateRow(tt.row)
			if got != tt.wantErr {
				t.Errorf("ValidateRow() = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

// createTestExcel creates an in-memory Excel file for testing.
func createTestExcel(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheetName := "Sheet1"

	// Write header
	headers := []string{"name", "url"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			t.Fatalf("failed to set header cell: %v", err)
		}
	}

	// Write data rows
	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				t.Fatalf("failed to set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write Excel file: %v", err)
	}

	return bytes.NewReader(buf.Bytes())
}

func TestParseExcelFile(t *testing.T) {
	t.Helper()

	tests := []struct {
		name           string
		rows           [][]string
		wantRowCount   int
		wantErrorCount int
		wantErrorMsg   string
		wantErrorRow   int
	}{
		{
			name: "valid file with two sources",
			rows: [][]string{
				{"Source 1", "https://example.com"},
				{"Source 2", "https://test.com"},
			},
			wantRowCount:   2,
			wantErrorCount: 0,
		},
		{
			name: "missing name in row 2",
			rows: [][]string{
				{"", "https://example.com"},
			},
			wantRowCount:   0,
			wantErrorCount: 1,
			wantErrorMsg:   "name is required",
			wantErrorRow:   2,
		},
		{
			name: "missing url reported with row number",
			rows: [][]string{
				{"Source 1", "https://example.com"},
				{"Source 2", ""},
			},
			wantRowCount:   1,
			wantErrorCount: 1,
			wantErrorMsg:   "url is required",
			wantErrorRow:   3,
		},
		{
			name: "invalid scheme",
			rows: [][]string{
				{"Source 1", "ftp://example.com"},
			},
			wantRowCount:   0,
			wantErrorCount: 1,
			wantErrorMsg:   "url must start with",
			wantErrorRow:   2,
		},
		{
			name:           "empty file (header only)",
			rows:           [][]string{},
			wantRowCount:   0,
			wantErrorCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := createTestExcel(t, tt.rows)

			rows, errors := importer.ParseExcelFile(reader)

			if len(rows) != tt.wantRowCount {
				t.Errorf("ParseExcelFile() got %d rows, want %d", len(rows), tt.wantRowCount)
			}

			if len(errors) != tt.wantErrorCount {
				t.Errorf("ParseExcelFile() got %d errors, want %d", len(errors), tt.wantErrorCount)
			}

			if tt.wantErrorMsg != "" && len(errors) > 0 {
				if !strings.Contains(errors[0].Error, tt.wantErrorMsg) {
					t.Errorf("ParseExcelFile() error = %q, want to contain %q", errors[0].Error, tt.wantErrorMsg)
				}
				if errors[0].Row != tt.wantErrorRow {
					t.Errorf("ParseExcelFile() error row = %d, want %d", errors[0].Row, tt.wantErrorRow)
				}
			}
		})
	}
}

func TestParseExcelFile_NotASpreadsheet(t *testing.T) {
	rows, errors := importer.ParseExcelFile(strings.NewReader("not an xlsx file"))
	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if len(errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errors))
	}
	if !strings.Contains(errors[0].Error, "open spreadsheet") {
		t.Errorf("error = %q, want open spreadsheet failure", errors[0].Error)
	}
}

func TestToSource(t *testing.T) {
	row := importer.SourceRow{Row: 2, Name: "  Test Source  ", URL: " https://example.com "}

	source := importer.ToSource(row)

	if source.URL != "https://example.com" {
		t.Errorf("URL = %q, want %q", source.URL, "https://example.com")
	}
	if source.Name == nil || *source.Name != "Test Source" {
		t.Errorf("Name = %v, want %q", source.Name, "Test Source")
	}
}
