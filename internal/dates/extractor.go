// Package dates extracts a best-guess publication date from free-form
// article or listing text. Listing pages rarely expose structured
// dates, so the result is advisory: callers prefer an authoritative
// publish date when one exists.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Only the head of the content is scanned; dates past that point
	// are almost never the publication date, and scanning stays cheap.
	scanWindow = 2000

	minYear = 2020
	maxYear = 2030
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Patterns are ordered by specificity. Each match becomes a candidate;
// the most recent surviving candidate wins.
var datePatterns = []*regexp.Regexp{
	// Full month names: "May 20, 2025", "December 3rd, 2024"
	regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`),

	// Short month names: "Jan 20, 2025", "Dec 3rd, 2024"
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`),

	// ISO: "2025-05-20"
	regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),

	// US slashes: "05/20/2025", "5/20/2025"
	regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),

	// European dots/dashes: "20.05.2025", "20-05-2025"
	regexp.MustCompile(`\b(\d{1,2})[-.](\d{1,2})[-.](\d{4})\b`),

	// Reversed: "20 May 2025"
	regexp.MustCompile(`(?i)\b(\d{1,2})\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})\b`),

	// Prefixed: "Published: May 20, 2025", "Posted on 2025-05-20"
	regexp.MustCompile(`(?i)(?:published|posted|date)[\s:]+(?:on\s+)?([A-Za-z]+ \d{1,2},? \d{4}|\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/\d{4})`),
}

// Last resort: a bare recent year not glued to other date digits, so
// the year inside a malformed "2025-13-45" never resurfaces alone.
var bareYearRe = regexp.MustCompile(`(?:^|[^-/.\d])(202[0-9])(?:$|[^-/.\d])`)

var (
	monthNameRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\b`)
	dayRe       = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\b`)
	yearRe      = regexp.MustCompile(`\b(\d{4})\b`)
)

// Extract returns the most plausible publication date found in content,
// relative to now. The second return value is false when nothing
// usable was found. Candidates outside [2020, 2030] or more than one
// year past now are discarded.
func Extract(content string, now time.Time) (time.Time, bool) {
	if content == "" {
		return time.Time{}, false
	}
	if len(content) > scanWindow {
		content = content[:scanWindow]
	}

	var found []time.Time
	for _, pattern := range datePatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			if date, ok := parseMatch(match); ok {
				found = append(found, date)
			}
		}
	}

	if len(found) == 0 {
		for _, match := range bareYearRe.FindAllStringSubmatch(content, -1) {
			if date, ok := makeDate(atoi(match[1]), 1, 1); ok {
				found = append(found, date)
			}
		}
	}

	if len(found) == 0 {
		return time.Time{}, false
	}

	oneYearOut := now.AddDate(1, 0, 0)
	best := time.Time{}
	for _, date := range found {
		if date.After(oneYearOut) {
			continue
		}
		if date.After(best) {
			best = date
		}
	}
	if best.IsZero() {
		return time.Time{}, false
	}
	return best, true
}

func parseMatch(match []string) (time.Time, bool) {
	full := strings.ToLower(match[0])

	if m := monthNameRe.FindString(full); m != "" {
		return parseNamedMonth(full, m)
	}

	switch {
	// ISO: first group is the 4-digit year
	case len(match) >= 4 && len(match[1]) == 4:
		return makeDate(atoi(match[1]), atoi(match[2]), atoi(match[3]))

	// Slash/dot/dash numeric: year last, day/month order ambiguous
	case len(match) >= 4 && len(match[3]) == 4:
		return parseAmbiguousNumeric(atoi(match[1]), atoi(match[2]), atoi(match[3]))
	}

	return time.Time{}, false
}

func parseNamedMonth(full, monthWord string) (time.Time, bool) {
	month, ok := monthsByName[strings.TrimSuffix(monthWord, ".")]
	if !ok {
		return time.Time{}, false
	}

	yearMatch := yearRe.FindStringSubmatch(full)
	if yearMatch == nil {
		return time.Time{}, false
	}

	day := 1
	if dayMatch := dayRe.FindStringSubmatch(full); dayMatch != nil {
		day = atoi(dayMatch[1])
	}

	return makeDate(atoi(yearMatch[1]), int(month), day)
}

// parseAmbiguousNumeric resolves N/M/YYYY as MM/DD first (US
// convention) and falls back to DD/MM when the first part cannot be a
// month. "03/04/2025" therefore always reads as March 4th.
func parseAmbiguousNumeric(first, second, year int) (time.Time, bool) {
	if date, ok := makeDate(year, first, second); ok {
		return date, true
	}
	return makeDate(year, second, first)
}

func makeDate(year, month, day int) (time.Time, bool) {
	if year < minYear || year > maxYear {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject such dates.
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
