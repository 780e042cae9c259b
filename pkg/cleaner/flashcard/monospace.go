package flashcard

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const monospaceStyle = "font-family: monospace; white-space: pre; margin: 8px 0;"

var blankLinesRegex = regexp.MustCompile(`\n{3,}`)

// textWithBreaks returns the text below n with <br> turned into newlines.
func textWithBreaks(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				sb.WriteString(c.Data)
			case isElement(c, atom.Br):
				sb.WriteByte('\n')
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)

	out := strings.ReplaceAll(sb.String(), "\u00a0", " ")
	out = blankLinesRegex.ReplaceAllString(out, "\n\n")
	return strings.Trim(out, "\n")
}

// nextElementSibling skips whitespace-only text and returns the next
// sibling, or nil.
func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) == "" {
			continue
		}
		return s
	}
	return nil
}

// rebuildMonospace turns monospace-marked elements into <pre> blocks and
// drops a <br> directly after each new block.
func (p *pass) rebuildMonospace(root *goquery.Selection) {
	rootNode := root.Nodes[0]

	for _, n := range snapshot(root.Find(p.cfg.Selectors.Monospace)) {
		if !attached(n, rootNode) {
			continue
		}
		pre := &html.Node{
			Type:     html.ElementNode,
			Data:     "pre",
			DataAtom: atom.Pre,
			Attr:     []html.Attribute{{Key: "style", Val: monospaceStyle}},
		}
		pre.AppendChild(&html.Node{Type: html.TextNode, Data: textWithBreaks(n)})
		replaceNode(n, pre)
		p.stats.MonospaceBlocks++

		if next := nextElementSibling(pre); isElement(next, atom.Br) {
			p.stats.RecordRemoval("br")
			removeNode(next)
		}
	}
}
