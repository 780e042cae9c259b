package flashcard

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const dataURIPrefix = "data:"

// removeComments deletes every comment node below root.
func (p *pass) removeComments(root *html.Node) {
	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				comments = append(comments, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	for _, c := range comments {
		removeNode(c)
		p.stats.CommentsRemoved++
	}
}

// dropImage reports whether an <img> must be removed outright.
func (p *pass) dropImage(n *html.Node) bool {
	src, _ := attr(n, "src")
	src = strings.TrimSpace(src)
	if p.cfg.DropDataURIImages && strings.HasPrefix(strings.ToLower(src), dataURIPrefix) {
		return true
	}
	return utf8.RuneCountInString(src) > p.cfg.MaxImageURLChars
}

// rewriteStyle filters the style attribute of n, deleting it when nothing
// safe is left.
func (p *pass) rewriteStyle(n *html.Node) {
	raw, ok := attr(n, "style")
	if !ok {
		return
	}
	parsed := ParseStyle(raw)
	kept := parsed.Filter()
	p.stats.StylePropertiesDropped += len(parsed) - len(kept)
	if st := kept.String(); st != "" {
		setAttr(n, "style", st)
		return
	}
	p.dropAttrs(n, func(a html.Attribute) bool { return a.Key == "style" })
}

// dropAttrs removes the attributes of n matching drop.
func (p *pass) dropAttrs(n *html.Node, drop func(html.Attribute) bool) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if drop(a) {
			p.stats.AttributesRemoved++
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// stripNoise removes comments, scripts and placeholder elements, then
// enforces the tag/attribute allow-list and the inline style filter on
// every element below root. Running it on its own output changes nothing.
func (p *pass) stripNoise(root *goquery.Selection) {
	rootNode := root.Nodes[0]

	p.removeComments(rootNode)

	for _, n := range snapshot(root.Find("script, style")) {
		p.stats.RecordRemoval(n.Data)
		removeNode(n)
	}

	if len(p.cfg.Selectors.EmptyElements) > 0 {
		for _, n := range snapshot(root.Find(strings.Join(p.cfg.Selectors.EmptyElements, ", "))) {
			p.stats.RecordRemoval(n.Data)
			removeNode(n)
		}
	}

	for _, n := range snapshot(root.Find("*")) {
		if !attached(n, rootNode) {
			continue
		}

		if n.DataAtom == atom.Img && p.dropImage(n) {
			p.stats.ImagesDropped++
			p.stats.RecordRemoval(n.Data)
			removeNode(n)
			continue
		}

		if !p.cfg.PreserveClasses {
			p.dropAttrs(n, func(a html.Attribute) bool { return a.Key == "class" })
		}

		allowed, ok := allowedAttrs(n.DataAtom)
		if !ok || n.Namespace != "" {
			p.stats.RecordUnwrap(n.Data)
			unwrapNode(n)
			continue
		}

		// Styles are filtered before the span check so a span whose only
		// style is dropped is unwrapped in the same pass.
		p.rewriteStyle(n)

		if n.DataAtom == atom.Span && !hasAnyAttr(n, spanAnchors) {
			p.stats.RecordUnwrap(n.Data)
			unwrapNode(n)
			continue
		}

		p.dropAttrs(n, func(a html.Attribute) bool {
			if a.Namespace != "" {
				return true
			}
			return !allowed.has(a.Key) && !(p.cfg.PreserveClasses && a.Key == "class")
		})
	}
}

// dropEmptyParagraphs removes <p> elements holding neither text nor child
// elements, such as the empty half left when a nested paragraph is split
// on reparse. A fragment with no text at all is left alone.
func (p *pass) dropEmptyParagraphs(root *goquery.Selection) {
	if isBlank(textContent(root.Nodes[0])) {
		return
	}
	nodes := snapshot(root.Find("p"))
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if hasElementChild(n) || !isBlank(textContent(n)) {
			continue
		}
		p.stats.RecordRemoval(n.Data)
		removeNode(n)
	}
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func hasAnyAttr(n *html.Node, keys []string) bool {
	for _, k := range keys {
		if hasAttr(n, k) {
			return true
		}
	}
	return false
}
