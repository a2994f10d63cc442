package policy

import "strings"

// match reports whether m matches fullMethod and, when applicable, returns the
// length of the matched portion (used for tie-breaking among same-kind rules).
func (m *matcher) match(fullMethod string) (matched bool, length int) {
	switch m.kind {
	case kindExact:
		if fullMethod == m.pattern {
			return true, len(m.pattern)
		}
	case kindPrefix:
		if strings.HasPrefix(fullMethod, m.pattern) {
			return true, len(m.pattern)
		}
	case kindRegex:
		if loc := m.re.FindStringIndex(fullMethod); loc != nil {
			return true, loc[1] - loc[0]
		}
	}
	return false, 0
}
