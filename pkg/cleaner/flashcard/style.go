package flashcard

import "strings"

// Declaration is a single CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Style is an inline style attribute parsed into declarations, in source order.
type Style []Declaration

// ParseStyle parses a style attribute value. Property names are lowercased.
// A repeated property keeps its first position and its last value.
func ParseStyle(raw string) Style {
	var st Style
	index := make(map[string]int)
	for _, chunk := range strings.Split(raw, ";") {
		prop, val, found := strings.Cut(chunk, ":")
		if !found {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		val = strings.TrimSpace(val)
		if i, seen := index[prop]; seen {
			st[i].Value = val
			continue
		}
		index[prop] = len(st)
		st = append(st, Declaration{Property: prop, Value: val})
	}
	return st
}

// Filter returns the declarations whose property is safe and not blocked.
func (s Style) Filter() Style {
	var out Style
	for _, d := range s {
		if IsSafeStyleProperty(d.Property) {
			out = append(out, d)
		}
	}
	return out
}

// String serializes the style, skipping declarations with empty values.
func (s Style) String() string {
	parts := make([]string, 0, len(s))
	for _, d := range s {
		if d.Value == "" {
			continue
		}
		parts = append(parts, d.Property+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

// FilterInlineStyle rewrites a style attribute value to its safe subset.
// The result is empty when nothing survives.
func FilterInlineStyle(raw string) string {
	return ParseStyle(raw).Filter().String()
}
