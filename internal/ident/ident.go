// Package ident maps raw XML tag and attribute names to valid,
// collision-free Go identifiers.
package ident

import (
	"go/token"
	"strings"
	"unicode"
)

// fallback is used when a raw name sanitizes to nothing at all.
const fallback = "field"

// Sanitizer assigns identifiers and remembers every assignment it has
// made, so the same raw name always yields the same identifier within
// one run and two different raw names never share one. The registry is
// run-scoped state owned by whoever constructs the Sanitizer.
type Sanitizer struct {
	capitalize bool
	assigned   map[string]string // raw name -> identifier
	owners     map[string]string // identifier -> raw name
}

// New returns a Sanitizer producing lower-case-preserving identifiers
// (field names).
func New() *Sanitizer {
	return &Sanitizer{
		assigned: make(map[string]string),
		owners:   make(map[string]string),
	}
}

// NewCapitalized returns a Sanitizer producing capitalized identifiers
// (class names): first rune upper, remainder lower.
func NewCapitalized() *Sanitizer {
	s := New()
	s.capitalize = true
	return s
}

// Name sanitizes raw into a valid identifier. It never fails: the
// namespace prefix is stripped, every rune outside [A-Za-z0-9_] becomes
// an underscore, an empty result falls back to a synthetic name, and a
// trailing underscore is appended while the result is a Go keyword or
// is already owned by a different raw name.
func (s *Sanitizer) Name(raw string) string {
	if id, ok := s.assigned[raw]; ok {
		return id
	}

	id := clean(raw, s.capitalize)
	for token.IsKeyword(id) {
		id += "_"
	}
	for {
		owner, taken := s.owners[id]
		if !taken || owner == raw {
			break
		}
		id += "_"
	}

	s.assigned[raw] = id
	s.owners[id] = raw
	// Every produced identifier is a fixed point: sanitizing it again
	// yields itself instead of another suffix.
	if _, ok := s.assigned[id]; !ok {
		s.assigned[id] = id
	}
	return id
}

// clean performs the stateless part of sanitization.
func clean(raw string, capitalize bool) string {
	// Strip any namespace prefix: both the {uri}local form and the
	// prefix:local form.
	if i := strings.LastIndexByte(raw, '}'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		raw = raw[i+1:]
	}

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == '_' || unicode.IsDigit(r):
			b.WriteRune(r)
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()

	if strings.Trim(id, "_") == "" {
		id = fallback
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if capitalize {
		id = strings.ToUpper(id[:1]) + strings.ToLower(id[1:])
	}
	return id
}
