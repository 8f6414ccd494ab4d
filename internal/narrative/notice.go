package narrative

import (
	"strings"
	"unicode"
)

// Reply is narrative text returned by the external text generator.
type Reply struct {
	Text   string `json:"text"`
	Notice string `json:"notice,omitempty"`
}

// NewReply trims the text and drops a leading fallback notice.
func NewReply(text, notice string) Reply {
	notice = strings.TrimSpace(notice)
	return Reply{Text: StripNoticePrefix(text, notice), Notice: notice}
}

// StripNoticePrefix trims text and removes notice when the text starts with it.
// Nothing else about the text is inspected.
func StripNoticePrefix(text, notice string) string {
	cleaned := strings.TrimSpace(text)
	n := strings.TrimSpace(notice)
	if n == "" {
		return cleaned
	}
	if rest, ok := strings.CutPrefix(cleaned, n); ok {
		return strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	return cleaned
}
