package mailer

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	breakRe       = regexp.MustCompile(`(?i)<(br\s*/?|/p|/div|/h[1-6]|/li|/tr)>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe       = regexp.MustCompile(`\n{3,}`)
	spaceRe       = regexp.MustCompile(`[ \t]+`)
)

// TextFromHTML derives a plain-text alternative from an HTML body by
// stripping markup. Block-level closings become newlines so the result stays
// readable. It is a literal fallback, not a renderer.
func TextFromHTML(htmlBody string) string {
	if strings.TrimSpace(htmlBody) == "" {
		return ""
	}

	text := scriptStyleRe.ReplaceAllString(htmlBody, "")
	text = breakRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
