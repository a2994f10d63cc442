// Package keytmpl renders cache keys from templates such as
// "user:#{id}:orders:#{page}". Expansion is plain string interpolation over a
// parameter map resolved by the caller; nothing in a template is evaluated.
package keytmpl

import (
	"errors"
	"strings"
)

// ErrMissingParameter is matched by every *MissingParameterError.
var ErrMissingParameter = errors.New("keytmpl: missing parameter")

// MissingParameterError reports a placeholder that has no value in the
// parameter map.
type MissingParameterError struct {
	Template string
	Name     string
}

func (e *MissingParameterError) Error() string {
	return "keytmpl: missing parameter " + e.Name + " in template " + e.Template
}

// Is makes errors.Is(err, ErrMissingParameter) hold.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

const (
	open       = "#{"
	closeBrace = '}'
)

// Format replaces every #{name} placeholder in template with params[name].
// A template without placeholders is returned unchanged. An unterminated
// "#{" or one enclosing an invalid name is copied literally.
func Format(template string, params map[string]string) (string, error) {
	if !strings.Contains(template, open) {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		name, ok := placeholderAt(rest[i+len(open):])
		if !ok {
			// Not a placeholder; keep "#{" and continue after it.
			b.WriteString(rest[:i+len(open)])
			rest = rest[i+len(open):]
			continue
		}
		v, found := params[name]
		if !found {
			return "", &MissingParameterError{Template: template, Name: name}
		}
		b.WriteString(rest[:i])
		b.WriteString(v)
		rest = rest[i+len(open)+len(name)+1:]
	}
	return b.String(), nil
}

// Placeholders returns the placeholder names referenced by template in order
// of first appearance, without duplicates.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})

	rest := template
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			return names
		}
		rest = rest[i+len(open):]
		name, ok := placeholderAt(rest)
		if !ok {
			continue
		}
		rest = rest[len(name)+1:]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
}

// placeholderAt parses "name}" at the start of s.
func placeholderAt(s string) (string, bool) {
	end := strings.IndexByte(s, closeBrace)
	if end <= 0 {
		return "", false
	}
	name := s[:end]
	for i := 0; i < len(name); i++ {
		if !validNameByte(name[i]) {
			return "", false
		}
	}
	return name, true
}

func validNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-':
		return true
	}
	return false
}
