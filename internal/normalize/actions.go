package normalize

import (
	"encoding/json"
	"strings"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// taskEnvelope matches the JSON shape the action-extraction prompt asks for
type taskEnvelope struct {
	Tasks []json.RawMessage `json:"tasks"`
}

type taskEntry struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline"`
	Priority string `json:"priority"`
}

// ActionItems parses raw model output expected to contain a JSON object with
// a "tasks" array. Markdown code fences are stripped and, failing a clean
// parse, the first {...} span in the text is tried. Malformed entries are
// dropped; any unrecoverable parse failure yields an empty list, never an
// error.
func ActionItems(raw string) []core.ActionItem {
	text := stripCodeFences(raw)

	var envelope taskEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		span, ok := extractObjectSpan(text)
		if !ok {
			return nil
		}
		if err := json.Unmarshal([]byte(span), &envelope); err != nil {
			return nil
		}
	}

	items := make([]core.ActionItem, 0, len(envelope.Tasks))
	for _, rawTask := range envelope.Tasks {
		var entry taskEntry
		if err := json.Unmarshal(rawTask, &entry); err != nil {
			// Not an object-shaped entry
			continue
		}

		task := strings.TrimSpace(entry.Task)
		if task == "" {
			continue
		}

		priority := strings.ToLower(strings.TrimSpace(entry.Priority))
		if priority == "" {
			priority = core.PriorityMedium
		}

		items = append(items, core.ActionItem{
			Task:     task,
			Deadline: strings.TrimSpace(entry.Deadline),
			Priority: priority,
		})
	}

	return items
}

// stripCodeFences removes leading/trailing markdown fence lines ("```" with
// an optional "json" annotation) that models wrap around JSON output.
func stripCodeFences(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractObjectSpan returns the substring from the first '{' to the last '}'
func extractObjectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
