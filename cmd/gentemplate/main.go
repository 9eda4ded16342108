// Command gentemplate generates the Excel import template for sources.
// Usage: go run cmd/gentemplate/main.go
package main

import (
	"log"
	"os"

	"github.com/xuri/excelize/v2"
)

func main() {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Sources"); err != nil {
		log.Fatal(err)
	}

	headers := []string{"Name", "URL"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Sources", cell, h); err != nil {
			log.Fatal(err)
		}
	}

	examples := [][]string{
		{"Example News", "https://example.com/news"},
		{"Local Blog", "https://blog.local"},
	}
	for rowIdx, row := range examples {
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				log.Fatal(err)
			}
			if err := f.SetCellValue("Sources", cell, v); err != nil {
				log.Fatal(err)
			}
		}
	}

	if _, err := f.NewSheet("Instructions"); err != nil {
		log.Fatal(err)
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"Name - Required. Display name for the source",
		"URL - Required. Site URL to discover articles from (must start with http:// or https://)",
		"",
		"Rows are matched by URL on import: a known URL updates the name,",
		"an unknown URL creates a new source.",
	}
	for i, line := range instructions {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			log.Fatal(err)
		}
	}

	if err := os.MkdirAll("examples", 0755); err != nil {
		log.Fatal(err)
	}

	if err := f.SaveAs("examples/source-import-template.xlsx"); err != nil {
		log.Fatal(err)
	}
	log.Println("Created examples/source-import-template.xlsx")
}
