// Package prompt composes an agent's final prompt from its template text and
// the live values of its form fields.
package prompt

import (
	"strings"

	"github.com/ashita-ai/hinagata/fieldspec"
)

// Compose builds the full prompt. With no field specs the template text is
// returned verbatim. Otherwise the result is the template, a newline, and one
// "<placeholder>: <value>" line per spec in spec order, where the value is
// the live value when present, the spec default otherwise, and empty when
// neither exists. Compose is pure: calling it again with the same inputs
// yields the same output.
func Compose(template string, specs []fieldspec.FieldSpec, live map[string]string) string {
	if len(specs) == 0 {
		return template
	}
	lines := make([]string, 0, len(specs))
	for _, s := range specs {
		value, ok := live[s.Placeholder]
		if !ok {
			value = s.Default
		}
		lines = append(lines, s.Placeholder+": "+value)
	}
	return template + "\n" + strings.Join(lines, "\n")
}

// FormatForInjection rewrites composed text for an HTML-shaped injection
// target: newlines become <br> and each run of two spaces becomes
// &nbsp;&nbsp;. Longer space runs are rewritten pairwise, so an odd run
// keeps its final single space.
func FormatForInjection(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		switch text[i] {
		case '\n':
			b.WriteString("<br>")
			i++
		case ' ':
			if i+1 < len(text) && text[i+1] == ' ' {
				b.WriteString("&nbsp;&nbsp;")
				i += 2
			} else {
				b.WriteByte(' ')
				i++
			}
		default:
			b.WriteByte(text[i])
			i++
		}
	}
	return b.String()
}
