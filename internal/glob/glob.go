// Package glob implements case-insensitive shell-style pattern matching
// for repository names. Supported tokens are '*' (zero or more characters)
// and '?' (exactly one character); everything else matches literally.
// Character classes and brace expansion are intentionally not supported.
package glob

import "strings"

// Match reports whether text matches pattern. Both inputs are lowercased
// before comparison, so matching is case-insensitive. Match is total: it
// returns a result for every input, including empty pattern and text.
func Match(pattern, text string) bool {
	p := strings.ToLower(pattern)
	t := strings.ToLower(text)

	m := matcher{
		pattern: p,
		text:    t,
		memo:    make(map[[2]int]bool),
	}
	return m.match(0, 0)
}

// matcher memoizes on (pattern index, text index) pairs so that patterns
// with many '*' tokens stay polynomial instead of exponential.
type matcher struct {
	pattern string
	text    string
	memo    map[[2]int]bool
}

func (m *matcher) match(pi, ti int) bool {
	key := [2]int{pi, ti}
	if v, ok := m.memo[key]; ok {
		return v
	}

	var ok bool
	switch {
	case pi == len(m.pattern):
		ok = ti == len(m.text)
	case m.pattern[pi] == '*':
		// Either the star matches nothing, or it consumes one more
		// text character and we retry the same pattern position.
		ok = m.match(pi+1, ti) || (ti < len(m.text) && m.match(pi, ti+1))
	case ti == len(m.text):
		ok = false
	case m.pattern[pi] == '?':
		ok = m.match(pi+1, ti+1)
	default:
		ok = m.pattern[pi] == m.text[ti] && m.match(pi+1, ti+1)
	}

	m.memo[key] = ok
	return ok
}
