// Package normalize converts raw model output into the structured shapes the
// rest of the system consumes: a category label, a list of action items, or a
// (subject, body) draft pair. All functions are pure, never fail, and degrade
// to documented defaults when the text does not match the expected format.
package normalize

import (
	"strings"
)

// maxAdHocCategoryLen bounds how long an unrecognized model answer may be
// before it is rejected as a category name.
const maxAdHocCategoryLen = 50

// categoryAliases maps common model phrasings onto canonical category names.
// Matched by substring containment, in order.
var categoryAliases = []struct {
	keyword  string
	category string
}{
	{"to-do", "To-Do"},
	{"to do", "To-Do"},
	{"todo", "To-Do"},
	{"project update", "Project Update"},
	{"meeting request", "Meeting Request"},
	{"meeting", "Meeting Request"},
	{"newsletter", "Newsletter"},
	{"important", "Important"},
	{"spam", "Spam"},
	{"general", "General"},
}

// Category maps raw model output onto a category name. The rules are applied
// in order: exact case-insensitive match against the valid set, substring
// containment of a valid name, alias containment, then the cleaned text
// verbatim when it is short enough to plausibly be a category. It always
// returns a non-empty string, falling back to the sentinel.
func Category(raw string, valid []string, sentinel string) string {
	cleaned := cleanCategoryText(raw)
	if cleaned == "" {
		return sentinel
	}

	lower := strings.ToLower(cleaned)

	for _, v := range valid {
		if strings.ToLower(v) == lower {
			return v
		}
	}

	for _, v := range valid {
		if strings.Contains(lower, strings.ToLower(v)) {
			return v
		}
	}

	for _, alias := range categoryAliases {
		if strings.Contains(lower, alias.keyword) {
			return alias.category
		}
	}

	if len(cleaned) < maxAdHocCategoryLen {
		return cleaned
	}

	return sentinel
}

// cleanCategoryText strips the decorations models tend to wrap around a bare
// category name: a "Category:" label, trailing lines, periods and quotes.
func cleanCategoryText(raw string) string {
	text := strings.TrimSpace(raw)

	for _, label := range []string{"Category:", "category:", "CATEGORY:"} {
		text = strings.ReplaceAll(text, label, "")
	}
	text = strings.TrimSpace(text)

	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		text = text[:idx]
	}

	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}
