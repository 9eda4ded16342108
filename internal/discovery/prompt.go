package discovery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/northbrief/curator/internal/scrape"
)

// articlesExtractionSchema constrains extraction output to a flat list
// of article candidates.
var articlesExtractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"articles": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"url": {"type": "string"},
					"publishedDate": {"type": "string"},
					"brandScore": {"type": ["number", "null"]}
				},
				"required": ["title", "url", "publishedDate", "brandScore"],
				"additionalProperties": false
			}
		}
	},
	"required": ["articles"],
	"additionalProperties": false
}`)

func extractionSystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a news curation assistant. You are given the markdown of one or more ")
	b.WriteString("news listing pages. Identify the individual articles linked from each page and ")
	b.WriteString("return them as structured data. Use absolute URLs. Use an empty publishedDate ")
	b.WriteString("when no date is visible for an article.\n")

	if req.DateRange != "" {
		fmt.Fprintf(&b, "\nOnly include articles published within this range: %s.\n", req.DateRange)
	}

	if req.BrandInstructions != "" {
		b.WriteString("\nScore each article's relevance to the following brand from 0 to 10 ")
		b.WriteString("and return it as brandScore:\n")
		b.WriteString(req.BrandInstructions)
		b.WriteString("\n")
	} else {
		b.WriteString("\nReturn null for every brandScore.\n")
	}

	return b.String()
}

func extractionUserPrompt(pages []scrape.Page) string {
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "Page URL: %s\n\n", page.Metadata.SourceURL)
		content := page.Markdown
		if len(content) > promptPageLimit {
			content = content[:promptPageLimit]
		}
		b.WriteString(content)
	}
	return b.String()
}
