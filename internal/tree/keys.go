package tree

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelCase converts a snake_case key to camelCase: components after
// the first are capitalized and joined, leading and trailing
// underscores are preserved verbatim. Keys without underscores pass
// through unchanged, which makes the conversion idempotent.
func CamelCase(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	lead := 0
	for lead < len(key) && key[lead] == '_' {
		lead++
	}
	trail := len(key)
	for trail > lead && key[trail-1] == '_' {
		trail--
	}
	core := key[lead:trail]
	if core == "" {
		return key
	}

	var b strings.Builder
	b.Grow(len(key))
	b.WriteString(key[:lead])
	first := true
	for _, part := range strings.Split(core, "_") {
		if part == "" {
			continue
		}
		if first {
			b.WriteString(part)
			first = false
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	b.WriteString(key[trail:])
	return b.String()
}
