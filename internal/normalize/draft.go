package normalize

import (
	"strings"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const (
	subjectMarker   = "Subject:"
	bodySeparator   = "---"
	replySubjPrefix = "Re: "
)

// Draft parses model output that follows the "Subject: <line>" convention
// with an optional "---" separator before the body. When the marker is
// missing the caller-supplied default subject is used and the whole text
// becomes the body. stripReplyPrefix removes a leading "Re: " from the
// parsed subject for call sites that prepend their own reply context.
// The returned pair is always fully populated.
func Draft(raw, defaultSubject string, stripReplyPrefix bool) core.DraftContent {
	text := strings.TrimSpace(raw)

	if !strings.Contains(text, subjectMarker) {
		return core.DraftContent{
			Subject: defaultSubject,
			Body:    text,
		}
	}

	_, afterMarker, _ := strings.Cut(text, subjectMarker)
	subjectPart := afterMarker
	if idx := strings.Index(subjectPart, bodySeparator); idx >= 0 {
		subjectPart = subjectPart[:idx]
	}
	subjectPart = strings.TrimSpace(subjectPart)

	subject := subjectPart
	if stripReplyPrefix {
		subject = strings.TrimSpace(strings.TrimPrefix(subject, replySubjPrefix))
	}
	if subject == "" {
		subject = defaultSubject
	}

	var body string
	if _, afterSep, found := strings.Cut(text, bodySeparator); found {
		body = strings.TrimSpace(afterSep)
	} else if subjectPart != "" {
		// No separator: the body is whatever follows the subject line
		if _, remainder, found := strings.Cut(afterMarker, subjectPart); found {
			body = strings.TrimSpace(remainder)
		} else {
			body = text
		}
	} else {
		body = text
	}

	return core.DraftContent{
		Subject: subject,
		Body:    body,
	}
}
