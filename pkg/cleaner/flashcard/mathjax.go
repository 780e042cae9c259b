package flashcard

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxMathAncestorDepth bounds the climb from a math placeholder to its
// rendering wrapper.
const maxMathAncestorDepth = 8

const mathPlaceholderSelector = `script[type^="math/tex"]`

// mathWrapperClasses mark the element MathJax renders a formula into.
var mathWrapperClasses = []string{"render-latex", "MathJax"}

// mathScaffolding is rendering output left behind by MathJax.
var mathScaffolding = []string{
	"span.MathJax_Preview",
	"span.MathJax",
	".MJX_Assistive_MathML",
	"nobr",
	"math",
	"[data-mathml]",
}

func isMathWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range mathWrapperClasses {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

// delimitTeX wraps source in display \[..\] or inline \(..\) delimiters.
func delimitTeX(source string, display bool) string {
	if display {
		return `\[` + source + `\]`
	}
	return `\(` + source + `\)`
}

// normalizeMath replaces every math placeholder below root with delimited
// TeX text, then drops the remaining MathJax scaffolding and all scripts.
func (p *pass) normalizeMath(root *goquery.Selection) {
	rootNode := root.Nodes[0]

	for _, script := range snapshot(root.Find(mathPlaceholderSelector)) {
		if !attached(script, rootNode) {
			// Its wrapper was already replaced by an earlier placeholder.
			continue
		}
		tex := strings.TrimSpace(textContent(script))
		if tex == "" {
			removeNode(script)
			p.stats.MathEmptyDropped++
			continue
		}
		kind, _ := attr(script, "type")
		text := &html.Node{
			Type: html.TextNode,
			Data: delimitTeX(tex, strings.Contains(kind, "mode=display")),
		}

		target := script
		for i := 0; i < maxMathAncestorDepth; i++ {
			if isMathWrapper(target) || target.Parent == nil || target.Parent.Type != html.ElementNode {
				break
			}
			target = target.Parent
		}
		if !isMathWrapper(target) || target == rootNode {
			target = script
		}
		replaceNode(target, text)
		p.stats.MathReplaced++
	}

	for _, sel := range mathScaffolding {
		for _, n := range snapshot(root.Find(sel)) {
			p.stats.RecordRemoval(n.Data)
			removeNode(n)
		}
	}
	for _, n := range snapshot(root.Find("script")) {
		p.stats.RecordRemoval(n.Data)
		removeNode(n)
	}
}
