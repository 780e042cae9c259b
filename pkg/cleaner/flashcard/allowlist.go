package flashcard

import "golang.org/x/net/html/atom"

// attrSet is a read-only set of attribute names.
type attrSet map[string]struct{}

func newAttrSet(names ...string) attrSet {
	s := make(attrSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s attrSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

var (
	imageAttrs = newAttrSet("src", "alt", "style", "width", "height", "id")
	linkAttrs  = newAttrSet("href", "target", "rel", "style", "id")
	tableAttrs = newAttrSet(
		"style", "align", "valign", "id", "width", "height",
		"border", "cellpadding", "cellspacing", "summary",
		"colspan", "rowspan",
	)
	textAttrs = newAttrSet("style", "align", "id", "width", "height")
)

// allowedAttrs returns the attributes a tag may keep. ok is false for tags
// outside the allow-list; those are unwrapped by the noise stripper.
func allowedAttrs(tag atom.Atom) (attrs attrSet, ok bool) {
	switch tag {
	case atom.Img:
		return imageAttrs, true
	case atom.A:
		return linkAttrs, true
	case atom.Table, atom.Tbody, atom.Thead, atom.Tr, atom.Td, atom.Th,
		atom.Caption, atom.Colgroup, atom.Col:
		return tableAttrs, true
	case atom.Pre, atom.P, atom.Ul, atom.Ol, atom.Li, atom.Blockquote,
		atom.Strong, atom.Em, atom.I, atom.B, atom.U, atom.Sup, atom.Sub,
		atom.Div, atom.Span, atom.Br,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Hr:
		return textAttrs, true
	}
	return nil, false
}

// spanAnchors are the attributes that justify keeping a <span>.
var spanAnchors = []string{"style", "align", "id"}

var safeStyleProps = map[string]struct{}{
	"text-align": {}, "text-decoration": {}, "vertical-align": {}, "white-space": {}, "display": {},
	"margin": {}, "margin-left": {}, "margin-right": {}, "margin-top": {}, "margin-bottom": {},
	"padding": {}, "padding-left": {}, "padding-right": {}, "padding-top": {}, "padding-bottom": {},
	"font-weight": {}, "font-style": {}, "font-size": {}, "line-height": {},
	"color": {}, "background-color": {},
	"border": {}, "border-top": {}, "border-right": {}, "border-bottom": {}, "border-left": {},
	"border-collapse": {}, "border-spacing": {},
	"width": {}, "height": {}, "max-width": {}, "max-height": {}, "cursor": {},
}

var blockedStyleProps = map[string]struct{}{
	"filter":           {},
	"opacity":          {},
	"mix-blend-mode":   {},
	"background-image": {},
}

// IsSafeStyleProperty reports whether a CSS property survives stripping.
func IsSafeStyleProperty(prop string) bool {
	if _, blocked := blockedStyleProps[prop]; blocked {
		return false
	}
	_, ok := safeStyleProps[prop]
	return ok
}

// AllowedAttribute reports whether tag may carry attr after stripping.
func AllowedAttribute(tag, attr string) bool {
	attrs, ok := allowedAttrs(atom.Lookup([]byte(tag)))
	return ok && attrs.has(attr)
}
