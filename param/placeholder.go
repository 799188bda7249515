// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"strings"
	"unicode"
)

// Parameters is a process-wide bag of named values available to %name%
// placeholders in defaults and requirement patterns.
type Parameters map[string]string

// Lookup implements the lookup func expected by [Interpolate].
func (p Parameters) Lookup(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// Interpolate replaces every %name% token in s with the value returned by
// lookup, or the empty string if lookup has none. %% yields a literal %.
// A % which does not start a well formed token is kept as is.
func Interpolate(s string, lookup func(string) (string, bool)) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	scanPlaceholders(s, func(lit string) {
		sb.WriteString(lit)
	}, func(name string) {
		v, _ := lookup(name)
		sb.WriteString(v)
	})
	return sb.String()
}

// placeholders lists the names referenced by %name% tokens in s.
func placeholders(s string) []string {
	var names []string
	scanPlaceholders(s, func(string) {}, func(name string) {
		names = append(names, name)
	})
	return names
}

func scanPlaceholders(s string, literal func(string), token func(string)) {
	for len(s) > 0 {
		i := strings.IndexByte(s, '%')
		if i < 0 {
			literal(s)
			return
		}
		literal(s[:i])
		s = s[i+1:]

		if strings.HasPrefix(s, "%") {
			literal("%")
			s = s[1:]
			continue
		}

		j := strings.IndexByte(s, '%')
		if j <= 0 || strings.ContainsFunc(s[:j], unicode.IsSpace) {
			literal("%")
			continue
		}

		token(s[:j])
		s = s[j+1:]
	}
}
