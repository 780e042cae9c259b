package flashcard

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Alternative is one lettered answer choice.
type Alternative struct {
	Label string
	Body  string
}

// Question is a statement with its ordered alternatives.
type Question struct {
	Statement    string
	Alternatives []Alternative
}

// Empty reports whether nothing was resolved.
func (q Question) Empty() bool {
	return q.Statement == "" && len(q.Alternatives) == 0
}

// HTML joins the statement and the alternatives list with a newline.
// The list is omitted when there are no alternatives.
func (q Question) HTML() string {
	var parts []string
	if q.Statement != "" {
		parts = append(parts, q.Statement)
	}
	if len(q.Alternatives) > 0 {
		items := make([]string, 0, len(q.Alternatives))
		for _, alt := range q.Alternatives {
			items = append(items, fmt.Sprintf("  <li>%s %s</li>", html.EscapeString(alt.Label), alt.Body))
		}
		parts = append(parts, "<ul>\n"+strings.Join(items, "\n")+"\n</ul>")
	}
	return strings.Join(parts, "\n")
}

// cleanSubtree cleans a copy of the children of sel and serializes them,
// leaving out whitespace-only text.
func (p *pass) cleanSubtree(sel *goquery.Selection) (string, error) {
	frag := cloneFragment(sel)
	p.normalizeMath(frag)
	p.rebuildMonospace(frag)
	p.stripNoise(frag)
	return renderChildren(frag.Nodes[0], true)
}

// extractQuestion resolves the statement and alternatives inside the
// question container. ok is false when the container is absent.
func (p *pass) extractQuestion(doc *goquery.Selection) (q Question, ok bool, err error) {
	sel := p.cfg.Selectors
	container := doc.Find(sel.Question).First()
	if container.Length() == 0 {
		return q, false, nil
	}

	if statement := container.Find(sel.Statement).First(); statement.Length() > 0 {
		if q.Statement, err = p.cleanSubtree(statement); err != nil {
			return q, true, err
		}
	}

	items := container.Find(sel.Alternatives).First().ChildrenFiltered("li")
	for i := 0; i < items.Length(); i++ {
		alt, err := p.extractAlternative(items.Eq(i))
		if err != nil {
			return q, true, err
		}
		if alt.Body == "" {
			p.stats.AlternativesDropped++
			continue
		}
		q.Alternatives = append(q.Alternatives, alt)
		p.stats.AlternativesKept++
	}
	return q, true, nil
}

func (p *pass) extractAlternative(li *goquery.Selection) (Alternative, error) {
	sel := p.cfg.Selectors
	alt := Alternative{
		Label: strings.TrimSpace(li.Find(sel.AlternativeLabel).First().Text()),
	}
	body := li.Find(sel.AlternativeBody).First()
	if body.Length() == 0 {
		return alt, nil
	}
	var err error
	alt.Body, err = p.cleanSubtree(body)
	return alt, err
}

// extract runs the fallback chain: statement and alternatives, then the
// explanation container, then the raw body.
func (p *pass) extract(doc *goquery.Selection) (string, Source, error) {
	q, _, err := p.extractQuestion(doc)
	if err != nil {
		return "", SourceNone, err
	}
	if out := strings.TrimSpace(q.HTML()); out != "" {
		return out, SourceQuestion, nil
	}

	if explanation := doc.Find(p.cfg.Selectors.Explanation).First(); explanation.Length() > 0 {
		out, err := p.cleanSubtree(explanation)
		if err != nil {
			return "", SourceNone, err
		}
		if out != "" {
			return out, SourceExplanation, nil
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc
	}
	raw, err := body.Html()
	if err != nil {
		return "", SourceNone, err
	}
	if out := strings.TrimSpace(raw); out != "" {
		return out, SourceBody, nil
	}
	return "", SourceNone, nil
}
