package campaign

import (
	"regexp"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// RenderTemplate substitutes {{key}} placeholders with the matching field of
// a recipient record. Substitution is literal and case-sensitive; a
// placeholder without a matching field is left intact in the output.
func RenderTemplate(template string, recipient domain.Recipient) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-2]
		if value, ok := recipient[key]; ok {
			return value
		}
		return match
	})
}
