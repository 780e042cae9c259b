package flashcard

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxTreeDepth caps element nesting in the fallback parse, well below the
// open-element limit of html.Parse.
const maxTreeDepth = 256

// loadDocument parses markup into a document tree. The parser repairs
// malformed input the way browsers do. Markup it still refuses, such as
// nesting deeper than its open-element limit, is rebuilt by buildShallow
// and degraded is true. Empty or whitespace-only markup yields nil.
func loadDocument(markup string) (doc *goquery.Document, degraded bool) {
	if isBlank(markup) {
		return nil, false
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err == nil {
		return goquery.NewDocumentFromNode(root), false
	}

	root = &html.Node{Type: html.DocumentNode}
	htmlNode, body := newElement(atom.Html), newElement(atom.Body)
	root.AppendChild(htmlNode)
	htmlNode.AppendChild(newElement(atom.Head))
	htmlNode.AppendChild(body)
	buildShallow(markup, body)
	return goquery.NewDocumentFromNode(root), true
}

// buildShallow tokenizes markup and appends the resulting nodes below
// parent without any tree-construction repair. Elements opened past
// maxTreeDepth are dropped and their content lands in the deepest kept
// element. html, head and body tags are skipped; end tags close the
// nearest open element with the same name, stray ones are ignored.
func buildShallow(markup string, parent *html.Node) {
	type open struct {
		name string
		node *html.Node // nil when dropped by the depth cap
	}
	stack := []open{{node: parent}}
	kept := 0
	current := func() *html.Node {
		for i := len(stack) - 1; i > 0; i-- {
			if stack[i].node != nil {
				return stack[i].node
			}
		}
		return parent
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.TextToken:
			current().AppendChild(&html.Node{Type: html.TextNode, Data: string(z.Text())})
		case html.CommentToken:
			current().AppendChild(&html.Node{Type: html.CommentNode, Data: string(z.Text())})
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if isDocumentTag(tok.DataAtom) {
				continue
			}
			container := tok.Type == html.StartTagToken && !isVoid(tok.DataAtom)
			if container && kept >= maxTreeDepth {
				stack = append(stack, open{name: tok.Data})
				continue
			}
			n := &html.Node{Type: html.ElementNode, Data: tok.Data, DataAtom: tok.DataAtom, Attr: tok.Attr}
			current().AppendChild(n)
			if container {
				stack = append(stack, open{name: tok.Data, node: n})
				kept++
			}
		case html.EndTagToken:
			tok := z.Token()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].name != tok.Data {
					continue
				}
				for _, o := range stack[i:] {
					if o.node != nil {
						kept--
					}
				}
				stack = stack[:i]
				break
			}
		}
	}
}

func isDocumentTag(a atom.Atom) bool {
	return a == atom.Html || a == atom.Head || a == atom.Body
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

// newContainer returns a detached <div> used as the root of a fragment.
// Stages never select the root itself, only its descendants.
func newContainer() *html.Node {
	return newElement(atom.Div)
}

// cloneFragment copies the children of sel into a new detached container so
// that cleaning one sub-tree never touches the source document.
func cloneFragment(sel *goquery.Selection) *goquery.Selection {
	root := newContainer()
	for _, n := range sel.Contents().Clone().Nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root).Selection
}

// parseFragment parses markup as body content into a detached container,
// falling back to buildShallow when the parser refuses it.
func parseFragment(markup string) *goquery.Selection {
	root := newContainer()
	nodes, err := html.ParseFragment(strings.NewReader(markup), newElement(atom.Body))
	if err != nil {
		buildShallow(markup, root)
		return goquery.NewDocumentFromNode(root).Selection
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root).Selection
}

// renderChildren serializes the children of root in order. With skipBlank,
// whitespace-only text children are left out.
func renderChildren(root *html.Node, skipBlank bool) (string, error) {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if skipBlank && c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// snapshot copies the matched nodes so the tree can be mutated while
// iterating over them.
func snapshot(sel *goquery.Selection) []*html.Node {
	return append([]*html.Node(nil), sel.Nodes...)
}

// attached reports whether n is still a descendant of root.
func attached(n, root *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func removeNode(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func replaceNode(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

// unwrapNode moves the children of n into its place and drops n.
func unwrapNode(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent concatenates every text node below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
