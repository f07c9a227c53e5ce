package notify

import (
	"strings"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// maxDescriptionRunes bounds the object description so messages stay inside
// the channel's payload limit.
const maxDescriptionRunes = 300

// truncationMark is appended to descriptions cut at the bound.
const truncationMark = "…"

// markdownEscaper escapes the characters Telegram's legacy Markdown dialect
// treats specially, so notice text renders as plain text instead of breaking
// formatting or being dropped by the API.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// FormatMessage builds the alert text for one notice.
func FormatMessage(n *domain.Notice) string {
	var b strings.Builder

	b.WriteString("*")
	b.WriteString(escape(n.Title))
	b.WriteString("*\n")
	b.WriteString("Órgão: ")
	b.WriteString(escape(n.Organization))
	b.WriteString("\n")

	if n.ObjectDescription != "" {
		b.WriteString("Objeto: ")
		b.WriteString(escape(truncate(n.ObjectDescription, maxDescriptionRunes)))
		b.WriteString("\n")
	}

	b.WriteString("Publicado: ")
	b.WriteString(escape(n.Published))
	b.WriteString("\n")
	b.WriteString("Link: ")
	b.WriteString(n.URL)

	return b.String()
}

// escape neutralizes Markdown control characters in free text.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// truncate cuts s to at most limit runes, marking the cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMark
}
