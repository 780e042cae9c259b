// Package forum turns the captured discussion list of a question into a
// flashcard-ready comment section.
package forum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Unavailable is the back-field content when no forum could be captured.
const Unavailable = "⚠️ Fórum não disponível para esta questão."

// defaultAvatar replaces missing or placeholder profile pictures.
const defaultAvatar = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' width='40' height='40'%3E" +
	"%3Crect fill='%23ddd' width='40' height='40'/%3E%3Ctext x='20' y='25' text-anchor='middle' fill='%23666' " +
	"font-size='20'%3E👤%3C/text%3E%3C/svg%3E"

const placeholderAvatar = "avatar.png"

// Selectors locate the parts of one forum comment.
type Selectors struct {
	Container string `json:"container" yaml:"container"`
	Visible   string `json:"visible" yaml:"visible"`
	Votes     string `json:"votes" yaml:"votes"`
	Avatar    string `json:"avatar" yaml:"avatar"`
	Name      string `json:"name" yaml:"name"`
	Points    string `json:"points" yaml:"points"`
	Date      string `json:"date" yaml:"date"`
	Body      string `json:"body" yaml:"body"`
}

// DefaultSelectors returns the markers of the TEC Concursos forum.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: "ul.discussao-comentarios",
		Visible:   ".discussao-comentario-corpo",
		Votes:     ".discussao-comentario-nota-numero span",
		Avatar:    ".post-cabecalho-perfil a img",
		Name:      ".link-professor",
		Points:    ".votos .pontos",
		Date:      ".post-cabecalho-perfil-data",
		Body:      ".discussao-comentario-post-texto",
	}
}

// Author identifies who wrote a comment.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Points string `json:"points"`
}

// Comment is one forum post.
type Comment struct {
	Votes  string `json:"votes"`
	Author Author `json:"author"`
	Date   string `json:"date"`
	Body   string `json:"body"`
}

// Score returns the vote count as an integer. Anything but digits and
// minus signs is ignored; unparsable text counts as zero.
func (c Comment) Score() int {
	return parseVotes(c.Votes)
}

func parseVotes(s string) int {
	var sb strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' {
			sb.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(sb.String())
	if err != nil {
		return 0
	}
	return n
}

// Parser extracts comments from captured forum markup.
type Parser struct {
	sel              Selectors
	maxImageURLChars int
}

// NewParser creates a Parser. maxImageURLChars bounds inline data: images
// kept in comment bodies.
func NewParser(sel Selectors, maxImageURLChars int) *Parser {
	return &Parser{sel: sel, maxImageURLChars: maxImageURLChars}
}

// Parse returns the visible comments with a body, in page order. Markup
// without the forum container yields no comments.
func (p *Parser) Parse(markup string) ([]Comment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	container := doc.Find(p.sel.Container).First()
	if container.Length() == 0 {
		return nil, nil
	}

	var comments []Comment
	items := container.ChildrenFiltered("li")
	for i := 0; i < items.Length(); i++ {
		item := items.Eq(i)
		if item.Find(p.sel.Visible).Length() == 0 {
			continue
		}
		c, ok := p.parseComment(item)
		if !ok {
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (p *Parser) parseComment(item *goquery.Selection) (Comment, bool) {
	bodySel := item.Find(p.sel.Body).First()
	if bodySel.Length() == 0 {
		return Comment{}, false
	}
	body := p.cleanBody(bodySel)
	if strings.TrimSpace(body) == "" {
		return Comment{}, false
	}

	return Comment{
		Votes: textOr(item.Find(p.sel.Votes).First(), "0"),
		Author: Author{
			Name:   textOr(item.Find(p.sel.Name).First(), "Usuário"),
			Avatar: avatar(item.Find(p.sel.Avatar).First()),
			Points: textOr(item.Find(p.sel.Points).First(), "0 pontos"),
		},
		Date: strings.TrimSpace(item.Find(p.sel.Date).First().Text()),
		Body: body,
	}, true
}

// cleanBody copies the post body, drops scripts, styles and oversized
// inline images, and makes the remaining images fit the card.
func (p *Parser) cleanBody(sel *goquery.Selection) string {
	body := sel.Clone()
	body.Find("script, style").Remove()
	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if strings.HasPrefix(src, "data:") && len(src) > p.maxImageURLChars {
			img.Remove()
			return
		}
		img.SetAttr("style", joinStyle(img.AttrOr("style", ""), imageStyle))
	})
	inner, err := body.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(inner)
}

const imageStyle = "max-width: 100%; height: auto; display: block; margin: 10px 0; border-radius: 4px;"

func joinStyle(existing, extra string) string {
	existing = strings.TrimRight(strings.TrimSpace(existing), ";")
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}

func textOr(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	if t := strings.TrimSpace(sel.Text()); t != "" {
		return t
	}
	return fallback
}

func avatar(img *goquery.Selection) string {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || strings.Contains(src, placeholderAvatar) {
		return defaultAvatar
	}
	return src
}
